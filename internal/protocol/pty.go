// internal/protocol/pty.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/creack/pty"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// PtySource opens a pseudo-terminal so calculator emulators can print to
// its slave side as if it were the serial port of an IR receiver
type PtySource struct {
	link   string
	logger *zap.Logger
	mutex  sync.RWMutex
	slave  string
	statsRecorder
}

// NewPtySource creates a pty source. When link is set a symlink with that
// name points at the slave device while the source runs.
func NewPtySource(link string, logger *zap.Logger) *PtySource {
	return &PtySource{
		link:   link,
		logger: orNop(logger).With(zap.String("protocol", "pty")),
	}
}

// Name returns the slave device path once the terminal is open
func (s *PtySource) Name() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.slave == "" {
		return "pty"
	}
	return s.slave
}

// Run opens the terminal pair and reads the master side until ctx is cancelled
func (s *PtySource) Run(ctx context.Context, sink ByteSink) error {
	master, slave, err := pty.Open()
	if err != nil {
		return fmt.Errorf("failed to open pseudo-terminal: %w", err)
	}
	defer slave.Close()

	// Output processing would turn 0x0A into CR LF
	if _, err := term.MakeRaw(int(slave.Fd())); err != nil {
		master.Close()
		return fmt.Errorf("failed to set pseudo-terminal to raw mode: %w", err)
	}

	s.mutex.Lock()
	s.slave = slave.Name()
	s.mutex.Unlock()

	if s.link != "" {
		os.Remove(s.link)
		if err := os.Symlink(slave.Name(), s.link); err != nil {
			master.Close()
			return fmt.Errorf("failed to link %s to %s: %w", s.link, slave.Name(), err)
		}
		defer os.Remove(s.link)
	}

	s.logger.Info("Pseudo-terminal ready, print to it as a serial port",
		zap.String("device", slave.Name()),
		zap.String("link", s.link),
	)
	s.connected(true)
	defer s.connected(false)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		master.Close()
	}()

	buf := make([]byte, readBufferSize)
	for {
		n, err := master.Read(buf)
		if n > 0 {
			deliver(sink, buf[:n], &s.statsRecorder, s.logger)
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, os.ErrClosed) {
				s.logger.Info("Pseudo-terminal closed")
				return nil
			}
			s.failed()
			return fmt.Errorf("failed to read from pseudo-terminal: %w", err)
		}
	}
}
