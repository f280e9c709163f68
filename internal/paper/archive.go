// internal/paper/archive.go
package paper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hp82240-service/internal/model"
)

// LineStore persists printed lines
type LineStore interface {
	AddLine(ctx context.Context, line *model.ArchivedLine) error
}

// ArchivePaper stores every printed line of a session. Lines are queued and
// written by a background worker so a slow database never stalls decoding;
// when the queue is full lines are dropped with a warning.
type ArchivePaper struct {
	store   LineStore
	session uuid.UUID
	queue   chan *model.ArchivedLine
	logger  *zap.Logger
	timeout time.Duration

	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
	stored   int
	failures int
}

// NewArchivePaper creates the sink and starts its worker
func NewArchivePaper(store LineStore, session uuid.UUID, queueSize int, logger *zap.Logger) *ArchivePaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	a := &ArchivePaper{
		store:   store,
		session: session,
		queue:   make(chan *model.ArchivedLine, queueSize),
		logger:  logger.With(zap.String("component", "archive"), zap.String("session_id", session.String())),
		timeout: 5 * time.Second,
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// PrintFullLine implements LineSink
func (a *ArchivePaper) PrintFullLine(line Line) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	archived := &model.ArchivedLine{
		SessionID: a.session,
		LineNo:    line.Number,
		Text:      line.Text,
		Bitmap:    line.Columns,
		PrintedAt: line.PrintedAt,
	}
	select {
	case a.queue <- archived:
	default:
		a.failures++
		a.logger.Warn("Archive queue full, dropping line", zap.Int("line_no", line.Number))
	}
}

func (a *ArchivePaper) run() {
	defer a.wg.Done()
	for line := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.store.AddLine(ctx, line)
		cancel()

		a.mu.Lock()
		if err != nil {
			a.failures++
		} else {
			a.stored++
		}
		a.mu.Unlock()
		if err != nil {
			a.logger.Error("Failed to archive line", zap.Int("line_no", line.LineNo), zap.Error(err))
		}
	}
}

// Close stops accepting lines and waits until the queue is written
func (a *ArchivePaper) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Info("Archive closed", zap.Int("stored", a.stored), zap.Int("failures", a.failures))
}

// Session returns the session the lines are stored under
func (a *ArchivePaper) Session() uuid.UUID {
	return a.session
}

// Counts returns the number of stored and failed lines
func (a *ArchivePaper) Counts() (stored, failures int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stored, a.failures
}
