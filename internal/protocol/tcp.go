// internal/protocol/tcp.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TCPSource accepts raw print jobs on a TCP port, one connection at a time.
// Decoder state carries over from one connection to the next, as it does
// on a printer that stays switched on.
type TCPSource struct {
	addr        string
	idleTimeout time.Duration
	logger      *zap.Logger
	mutex       sync.RWMutex
	listener    net.Listener
	statsRecorder
}

// NewTCPSource creates a source listening on addr
func NewTCPSource(addr string, idleTimeout time.Duration, logger *zap.Logger) *TCPSource {
	return &TCPSource{
		addr:        addr,
		idleTimeout: idleTimeout,
		logger: orNop(logger).With(
			zap.String("protocol", "tcp"),
			zap.String("addr", addr),
		),
	}
}

// Name returns the listen address
func (s *TCPSource) Name() string {
	return fmt.Sprintf("tcp://%s", s.Addr())
}

// Addr returns the bound address once listening, the configured one before
func (s *TCPSource) Addr() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Listen binds the port. Run calls it when it has not been called before.
func (s *TCPSource) Listen(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener != nil {
		return nil
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		s.logger.Error("Failed to listen", zap.Error(err))
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.logger.Info("Accepting print jobs", zap.String("listen", listener.Addr().String()))
	return nil
}

// Run accepts connections until ctx is cancelled
func (s *TCPSource) Run(ctx context.Context, sink ByteSink) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}

	s.mutex.RLock()
	listener := s.listener
	s.mutex.RUnlock()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	defer func() {
		s.mutex.Lock()
		s.listener = nil
		s.mutex.Unlock()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.failed()
			return fmt.Errorf("failed to accept connection: %w", err)
		}
		s.serve(ctx, conn, sink)
	}
}

func (s *TCPSource) serve(ctx context.Context, conn net.Conn, sink ByteSink) {
	logger := s.logger.With(zap.String("remote", conn.RemoteAddr().String()))
	logger.Info("Print job connected")
	s.connected(true)
	defer func() {
		s.connected(false)
		conn.Close()
	}()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	buf := make([]byte, readBufferSize)
	for {
		if s.idleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}
		n, err := conn.Read(buf)
		if n > 0 {
			deliver(sink, buf[:n], &s.statsRecorder, logger)
		}
		if err != nil {
			var netErr net.Error
			switch {
			case ctx.Err() != nil:
			case errors.As(err, &netErr) && netErr.Timeout():
				logger.Warn("Print job idle, closing connection", zap.Duration("timeout", s.idleTimeout))
			case errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF):
				logger.Info("Print job finished")
			default:
				s.failed()
				logger.Error("TCP read failed", zap.Error(err))
			}
			return
		}
	}
}
