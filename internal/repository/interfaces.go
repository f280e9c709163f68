// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"hp82240-service/internal/model"
)

// ErrSessionNotFound is returned for unknown session IDs
var ErrSessionNotFound = errors.New("print session not found")

// PaperRepository defines paper archive data access operations
type PaperRepository interface {
	// Sessions
	CreateSession(ctx context.Context, session *model.PrintSession) error
	EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.PrintSession, error)
	ListSessions(ctx context.Context, filter *SessionFilter) ([]*model.PrintSession, error)

	// Lines
	AddLine(ctx context.Context, line *model.ArchivedLine) error
	ListLines(ctx context.Context, sessionID uuid.UUID, filter *LineFilter) ([]*model.ArchivedLine, error)
}

// SessionFilter represents session listing filters
type SessionFilter struct {
	Source    *string    `json:"source,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Limit     int        `json:"limit"`
}

// LineFilter represents line listing filters
type LineFilter struct {
	AfterLine  int     `json:"after_line"`
	TextSearch *string `json:"text_search,omitempty"`
	Limit      int     `json:"limit"`
}
