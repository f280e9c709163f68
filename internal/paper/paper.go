// internal/paper/paper.go
package paper

import (
	"time"

	"hp82240-service/internal/decoder"
)

// Paper receives the output of the printer. Every flushed line arrives as a
// PrintLine call followed by a PrintGraphic call.
type Paper interface {
	PrintLine(text string)
	PrintGraphic(bitmap decoder.Bitmap)
}

// Line is one printed line as kept by the sinks
type Line struct {
	Number    int            `json:"number"`
	Text      string         `json:"text"`
	Bitmap    decoder.Bitmap `json:"-"`
	Columns   []byte         `json:"columns"`
	PrintedAt time.Time      `json:"printed_at"`
}

// NewLine packs a flushed line
func NewLine(number int, text string, bitmap decoder.Bitmap) Line {
	return Line{
		Number:    number,
		Text:      text,
		Bitmap:    bitmap,
		Columns:   bitmap.Bytes(),
		PrintedAt: time.Now(),
	}
}

// LineSink is implemented by sinks that want the text and the bitmap of a
// line together
type LineSink interface {
	PrintFullLine(line Line)
}

// Assembler pairs the text and graphic halves of a flush and hands complete
// lines to a LineSink
type Assembler struct {
	sink    LineSink
	pending *string
	count   int
}

// NewAssembler wraps sink as a Paper
func NewAssembler(sink LineSink) *Assembler {
	return &Assembler{sink: sink}
}

// PrintLine implements Paper
func (a *Assembler) PrintLine(text string) {
	a.pending = &text
}

// PrintGraphic implements Paper
func (a *Assembler) PrintGraphic(bitmap decoder.Bitmap) {
	text := ""
	if a.pending != nil {
		text = *a.pending
		a.pending = nil
	}
	a.count++
	a.sink.PrintFullLine(NewLine(a.count, text, bitmap))
}

// Multi fans every call out to several sinks
type Multi []Paper

// PrintLine implements Paper
func (m Multi) PrintLine(text string) {
	for _, p := range m {
		p.PrintLine(text)
	}
}

// PrintGraphic implements Paper
func (m Multi) PrintGraphic(bitmap decoder.Bitmap) {
	for _, p := range m {
		p.PrintGraphic(bitmap)
	}
}

// LineSinks fans complete lines out to several sinks
type LineSinks []LineSink

// PrintFullLine implements LineSink
func (s LineSinks) PrintFullLine(line Line) {
	for _, sink := range s {
		sink.PrintFullLine(line)
	}
}
