// internal/protocol/stdin.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// interrupt ends a raw terminal session, the printer protocol uses 0x04 so
// Ctrl-D cannot be used for that
const interrupt = 0x03

// StdinSource reads printer bytes from standard input until end of file.
// When the input is a terminal it is switched to raw mode so every key
// press reaches the printer immediately.
type StdinSource struct {
	in     io.Reader
	logger *zap.Logger
	raw    bool
	statsRecorder
}

// NewStdinSource creates a source reading from in, os.Stdin if nil
func NewStdinSource(in io.Reader, logger *zap.Logger) *StdinSource {
	if in == nil {
		in = os.Stdin
	}
	return &StdinSource{
		in:     in,
		logger: orNop(logger).With(zap.String("protocol", "stdin")),
	}
}

// Name returns the device name
func (s *StdinSource) Name() string {
	return "StdIn"
}

// Run reads until end of file or until ctx is cancelled
func (s *StdinSource) Run(ctx context.Context, sink ByteSink) error {
	if f, ok := s.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("failed to set terminal to raw mode: %w", err)
		}
		s.raw = true
		defer term.Restore(int(f.Fd()), state)
		s.logger.Info("Reading printer data from the terminal, press Ctrl-C to stop")
	}

	s.connected(true)
	defer s.connected(false)

	type chunk struct {
		data []byte
		err  error
	}
	chunks := make(chan chunk)
	done := make(chan struct{})
	defer close(done)

	go func() {
		buf := make([]byte, readBufferSize)
		for {
			n, err := s.in.Read(buf)
			c := chunk{err: err}
			if n > 0 {
				c.data = make([]byte, n)
				copy(c.data, buf[:n])
			}
			select {
			case chunks <- c:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-chunks:
			data, stop := s.cut(c.data)
			if len(data) > 0 {
				deliver(sink, data, &s.statsRecorder, s.logger)
			}
			if stop {
				s.logger.Info("Interrupt received on the terminal")
				return nil
			}
			if c.err != nil {
				if errors.Is(c.err, io.EOF) {
					s.logger.Debug("End of input reached")
					return nil
				}
				s.failed()
				s.logger.Error("Error while reading from StdIn", zap.Error(c.err))
				return fmt.Errorf("failed to read from stdin: %w", c.err)
			}
		}
	}
}

// cut truncates a raw terminal chunk at the interrupt key
func (s *StdinSource) cut(data []byte) ([]byte, bool) {
	if !s.raw {
		return data, false
	}
	for i, b := range data {
		if b == interrupt {
			return data[:i], true
		}
	}
	return data, false
}
