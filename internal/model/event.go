// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventLinePrinted        EventType = "LINE_PRINTED"
	EventPaperCleared       EventType = "PAPER_CLEARED"
	EventPrinterReset       EventType = "PRINTER_RESET"
	EventSelfTest           EventType = "SELF_TEST"
	EventSourceConnected    EventType = "SOURCE_CONNECTED"
	EventSourceDisconnected EventType = "SOURCE_DISCONNECTED"
	EventSourceError        EventType = "SOURCE_ERROR"
)

// PrinterEvent represents an event of the emulated printer
type PrinterEvent struct {
	ID        uuid.UUID   `json:"id"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Severity  string      `json:"severity"` // INFO, WARNING, ERROR
}

// NewPrinterEvent creates an event stamped now
func NewPrinterEvent(eventType EventType, source string, data interface{}) PrinterEvent {
	severity := "INFO"
	if eventType == EventSourceError {
		severity = "ERROR"
	}
	return PrinterEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		Source:    source,
		Severity:  severity,
	}
}

// LinePrintedData is the payload of EventLinePrinted
type LinePrintedData struct {
	Number    int       `json:"number"`
	Text      string    `json:"text"`
	Columns   []byte    `json:"columns"`
	PrintedAt time.Time `json:"printed_at"`
}
