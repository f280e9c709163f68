// internal/sender/sender.go
package sender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hp82240-service/internal/printfile"
	"hp82240-service/internal/protocol"
)

// The IR link runs at less than 80 bytes per second while the serial side
// runs at 115200 baud, so the sender waits for every line to go out. The
// printer needs 1.8 s to print a line.
const (
	DefaultByteDelay = 12820 * time.Microsecond
	DefaultLineDelay = 1800 * time.Millisecond
	DefaultReadyWait = 5 * time.Second
)

// Options controls the pacing of a Sender
type Options struct {
	ByteDelay time.Duration
	LineDelay time.Duration
	ReadyWait time.Duration
}

// Sender writes print files to a transmitter, one printed line at a time
type Sender struct {
	tx     protocol.Transmitter
	opts   Options
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a sender
func New(tx protocol.Transmitter, opts Options, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		tx:     tx,
		opts:   opts,
		logger: logger.With(zap.String("component", "sender"), zap.String("device", tx.Name())),
		sleep:  sleepContext,
	}
}

// Result summarizes a send
type Result struct {
	Lines int           `json:"lines"`
	Bytes int           `json:"bytes"`
	Ready bool          `json:"ready"`
	Took  time.Duration `json:"took"`
}

// Send waits for the transmitter and sends every line of r. A transmitter
// that does not become ready is logged and sent to anyway.
func (s *Sender) Send(ctx context.Context, r *printfile.Reader) (Result, error) {
	start := time.Now()
	var res Result

	s.logger.Info("Using port", zap.String("port", s.tx.Name()))
	ready, err := s.tx.WaitReady(ctx, s.opts.ReadyWait)
	if err != nil {
		return res, fmt.Errorf("waiting for %s: %w", s.tx.Name(), err)
	}
	res.Ready = ready
	if !ready {
		s.logger.Error("Device did not become ready", zap.Duration("timeout", s.opts.ReadyWait))
	} else {
		s.logger.Info("Sender is ready")
	}

	for r.HasNext() {
		line, lineErr := r.NextLine()
		if len(line) > 0 {
			if err := s.sendLine(ctx, line); err != nil {
				return res, err
			}
			res.Lines++
			res.Bytes += len(line)
		}
		if lineErr != nil {
			if errors.Is(lineErr, printfile.ErrNoLineFeed) {
				break
			}
			return res, lineErr
		}
	}

	if err := s.tx.Flush(); err != nil {
		return res, err
	}
	res.Took = time.Since(start)
	s.logger.Info("Print file sent",
		zap.Int("lines", res.Lines),
		zap.Int("bytes", res.Bytes),
		zap.Duration("took", res.Took),
	)
	return res, nil
}

func (s *Sender) sendLine(ctx context.Context, line []byte) error {
	if _, err := s.tx.Write(line); err != nil {
		return err
	}
	if err := s.tx.Flush(); err != nil {
		return err
	}
	return s.sleep(ctx, s.Pause(line))
}

// Pause returns how long to wait after sending line: the transmission time,
// rounded up to the millisecond, plus the print time when the line ends
// with a terminator.
func (s *Sender) Pause(line []byte) time.Duration {
	if len(line) == 0 {
		return 0
	}
	d := time.Duration(len(line)) * s.opts.ByteDelay
	if rem := d % time.Millisecond; rem != 0 {
		d += time.Millisecond - rem
	}
	switch line[len(line)-1] {
	case 0x04, 0x0A:
		d += s.opts.LineDelay
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
