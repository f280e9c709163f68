// internal/protocol/transmitter.go
package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"hp82240-service/internal/config"
)

// Transmitter sends printer bytes to an IR sender
type Transmitter interface {
	io.Writer

	// WaitReady blocks until the device signals it is ready or timeout passes
	WaitReady(ctx context.Context, timeout time.Duration) (bool, error)
	Flush() error
	Close() error
	Name() string
}

// SerialTransmitter drives an Arduino IR transmitter on a serial port. The
// board resets when the port opens and sends a ready byte once it is up.
type SerialTransmitter struct {
	port   *OpenedPort
	ready  byte
	logger *zap.Logger
}

// OpenSerialTransmitter opens the transmitter port
func OpenSerialTransmitter(cfg config.SerialConfig, ready byte, logger *zap.Logger) (*SerialTransmitter, error) {
	logger = orNop(logger).With(zap.String("protocol", "serial"), zap.String("role", "transmitter"))
	port, err := OpenPort(cfg, nil, nil, logger)
	if err != nil {
		return nil, err
	}
	return NewSerialTransmitter(port, ready, logger), nil
}

// NewSerialTransmitter wraps an opened port
func NewSerialTransmitter(port *OpenedPort, ready byte, logger *zap.Logger) *SerialTransmitter {
	return &SerialTransmitter{port: port, ready: ready, logger: orNop(logger)}
}

// Name returns the port name
func (t *SerialTransmitter) Name() string {
	return t.port.Name()
}

// WaitReady reads from the port until the ready byte arrives
func (t *SerialTransmitter) WaitReady(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 64)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}
		n, err := t.port.Read(buf)
		if err != nil {
			return false, fmt.Errorf("failed to read from %s: %w", t.Name(), err)
		}
		for _, b := range buf[:n] {
			if b == t.ready {
				t.logger.Debug("Ready byte received, transmitter is ready")
				return true, nil
			}
			t.logger.Debug("Character received from the transmitter", zap.String("char", string(rune(b))))
		}
	}
	t.logger.Error("Transmitter did not become ready", zap.Duration("timeout", timeout))
	return false, nil
}

// Write sends data to the transmitter
func (t *SerialTransmitter) Write(data []byte) (int, error) {
	n, err := t.port.Write(data)
	if err != nil {
		return n, fmt.Errorf("failed to write to %s: %w", t.Name(), err)
	}
	if n != len(data) {
		t.logger.Warn("Incomplete write to the IR device",
			zap.Int("written", n),
			zap.Int("bytes", len(data)),
		)
	}
	return n, nil
}

// Flush waits until all written bytes left the port
func (t *SerialTransmitter) Flush() error {
	if err := t.port.Drain(); err != nil {
		t.logger.Warn("Flush not successful", zap.Error(err))
		return fmt.Errorf("failed to drain %s: %w", t.Name(), err)
	}
	return nil
}

// Close closes the port
func (t *SerialTransmitter) Close() error {
	return t.port.Close()
}

// ConsoleTransmitter writes printer bytes to a stream, standard output by
// default, to pipe them into a receiver started with the stdin port
type ConsoleTransmitter struct {
	w *bufio.Writer
}

// NewConsoleTransmitter creates a console transmitter, os.Stdout if w is nil
func NewConsoleTransmitter(w io.Writer) *ConsoleTransmitter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleTransmitter{w: bufio.NewWriter(w)}
}

// Name returns the device name
func (t *ConsoleTransmitter) Name() string {
	return "StdOut"
}

// WaitReady always succeeds
func (t *ConsoleTransmitter) WaitReady(context.Context, time.Duration) (bool, error) {
	return true, nil
}

// Write buffers data
func (t *ConsoleTransmitter) Write(data []byte) (int, error) {
	return t.w.Write(data)
}

// Flush writes the buffered data
func (t *ConsoleTransmitter) Flush() error {
	return t.w.Flush()
}

// Close flushes the buffer
func (t *ConsoleTransmitter) Close() error {
	return t.w.Flush()
}
