// internal/service/broadcaster.go
package service

import (
	"hp82240-service/internal/model"
	"hp82240-service/internal/paper"
)

// Broadcaster publishes every printed line on the event bus
type Broadcaster struct {
	bus    *EventBus
	source string
}

// NewBroadcaster creates a line sink publishing to bus
func NewBroadcaster(bus *EventBus, source string) *Broadcaster {
	return &Broadcaster{bus: bus, source: source}
}

// PrintFullLine implements paper.LineSink
func (b *Broadcaster) PrintFullLine(line paper.Line) {
	b.bus.Publish(model.NewPrinterEvent(model.EventLinePrinted, b.source, model.LinePrintedData{
		Number:    line.Number,
		Text:      line.Text,
		Columns:   line.Columns,
		PrintedAt: line.PrintedAt,
	}))
}
