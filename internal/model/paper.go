// internal/model/paper.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// PrintSession groups the lines printed from one input source run
type PrintSession struct {
	ID        uuid.UUID  `json:"id"`
	Source    string     `json:"source"`
	Model     string     `json:"model"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Lines     int        `json:"lines"`
}

// ArchivedLine is a printed line as stored in the archive. Bitmap holds the
// 166 column bytes of the line.
type ArchivedLine struct {
	ID        int64     `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	LineNo    int       `json:"line_no"`
	Text      string    `json:"text"`
	Bitmap    []byte    `json:"bitmap"`
	PrintedAt time.Time `json:"printed_at"`
}

// NewPrintSession starts a session for source
func NewPrintSession(source, printerModel string) *PrintSession {
	return &PrintSession{
		ID:        uuid.New(),
		Source:    source,
		Model:     printerModel,
		StartedAt: time.Now(),
	}
}
