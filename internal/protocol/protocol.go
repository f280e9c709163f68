// internal/protocol/protocol.go
package protocol

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ByteSink receives the bytes read by a source
type ByteSink interface {
	ProcessBytes(data []byte)
}

// Source reads printer bytes from a device and hands them to a sink
type Source interface {
	// Run blocks until the source ends, fails or ctx is cancelled. A
	// cancelled context is not an error.
	Run(ctx context.Context, sink ByteSink) error

	// Name identifies the device, for logging
	Name() string
}

// Port selection errors
var (
	ErrNoPort        = errors.New("no matching serial port")
	ErrAmbiguousPort = errors.New("more than one matching serial port")
)

// ProtocolStats provides source-level statistics
type ProtocolStats struct {
	BytesRead    int64     `json:"bytes_read"`
	ChunkCount   int64     `json:"chunk_count"`
	ErrorCount   int64     `json:"error_count"`
	LastActivity time.Time `json:"last_activity"`
	IsConnected  bool      `json:"is_connected"`
}

// StatsProvider is implemented by sources that keep statistics
type StatsProvider interface {
	Stats() ProtocolStats
}

type statsRecorder struct {
	mutex sync.Mutex
	stats ProtocolStats
}

func (r *statsRecorder) read(n int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stats.BytesRead += int64(n)
	r.stats.ChunkCount++
	r.stats.LastActivity = time.Now()
}

func (r *statsRecorder) failed() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stats.ErrorCount++
}

func (r *statsRecorder) connected(up bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stats.IsConnected = up
	if up {
		r.stats.LastActivity = time.Now()
	}
}

// Stats returns a snapshot of the statistics
func (r *statsRecorder) Stats() ProtocolStats {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.stats
}

// deliver copies a chunk out of the read buffer, logs it and passes it on
func deliver(sink ByteSink, buf []byte, stats *statsRecorder, logger *zap.Logger) {
	data := make([]byte, len(buf))
	copy(data, buf)
	stats.read(len(data))
	logger.Debug("Print data received",
		zap.Int("bytes", len(data)),
		zap.String("data", hex.EncodeToString(data)),
	)
	sink.ProcessBytes(data)
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
