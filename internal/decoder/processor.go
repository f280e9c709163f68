// internal/decoder/processor.go
package decoder

// Sink receives the lines the printer flushes.
type Sink interface {
	PrintLine(text string)
	PrintGraphic(bitmap Bitmap)
}

// Processor drives a Decoder over one session and forwards every flushed
// line to a Sink. It is not safe for concurrent use.
type Processor struct {
	decoder *Decoder
	state   *State
	sink    Sink
	printed int
}

// NewProcessor creates a processor with a fresh session state
func NewProcessor(decoder *Decoder, sink Sink) *Processor {
	return &Processor{
		decoder: decoder,
		state:   NewState(),
		sink:    sink,
	}
}

// ProcessByte feeds one byte
func (p *Processor) ProcessByte(b byte) {
	for _, line := range p.decoder.Step(p.state, b) {
		p.sink.PrintLine(line.Text)
		p.sink.PrintGraphic(line.Bitmap)
		p.printed++
	}
}

// ProcessBytes feeds data in order
func (p *Processor) ProcessBytes(data []byte) {
	for _, b := range data {
		p.ProcessByte(b)
	}
}

// Printed returns the number of lines flushed so far
func (p *Processor) Printed() int {
	return p.printed
}

// Flags snapshots the decoder state
func (p *Processor) Flags() Flags {
	return p.state.Flags()
}

// Restart discards the session, including any partially built line
func (p *Processor) Restart() {
	p.state = NewState()
	p.printed = 0
}
