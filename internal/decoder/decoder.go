// internal/decoder/decoder.go
package decoder

import (
	"go.uber.org/zap"

	"hp82240-service/internal/charset"
	"hp82240-service/internal/escape"
	"hp82240-service/internal/font"
)

// Line terminators
const (
	LineFeed  byte = 0x0A
	EndOfLine byte = 0x04
	Escape         = escape.Introducer
)

// Line is what the printer puts on paper when a line is flushed
type Line struct {
	Text   string
	Bitmap Bitmap
}

// Decoder interprets the printer byte stream. It holds no per-session
// state; all of that lives in the State passed to Step.
type Decoder struct {
	fonts  font.Set
	modelA bool
	logger *zap.Logger
}

// Option configures a Decoder
type Option func(*Decoder)

// WithModelA emulates the 82240A, which has no alternate charset
func WithModelA(modelA bool) Option {
	return func(d *Decoder) {
		d.modelA = modelA
	}
}

// WithFonts replaces the built-in character ROMs
func WithFonts(fonts font.Set) Option {
	return func(d *Decoder) {
		d.fonts = fonts
	}
}

// WithLogger sets the logger used for protocol warnings
func WithLogger(logger *zap.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a decoder
func New(opts ...Option) *Decoder {
	d := &Decoder{
		fonts:  font.Default(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ModelA reports whether the decoder emulates the 82240A
func (d *Decoder) ModelA() bool {
	return d.modelA
}

// Step consumes one byte and returns the lines flushed by it, usually none.
func (d *Decoder) Step(s *State, b byte) []Line {
	st := step{Decoder: d, s: s}
	st.consume(b)
	return st.lines
}

// charset returns the table used to decode text bytes
func (d *Decoder) charset(s *State) *charset.Charset {
	if s.AltCharset && !d.modelA {
		return charset.RPL
	}
	return charset.HP82240A
}

// step carries one call of Step
type step struct {
	*Decoder
	s     *State
	lines []Line
}

func (st *step) consume(b byte) {
	s := st.s

	switch s.Mode {
	case ModeGraphics:
		st.graphicsColumn(b)
	case ModeEscape:
		if b == Escape {
			return
		}
		st.resolve(b)
	default:
		switch b {
		case LineFeed, EndOfLine:
			st.flush()
		case Escape:
			s.Mode = ModeEscape
		default:
			st.putCharacter(st.charset(s).Decode(b), b)
		}
	}
}

// putCharacter wraps the line if needed, then records r and prints the glyph
// of b so text and dots land on the same line
func (st *step) putCharacter(r rune, b byte) {
	st.wrapIfNeeded()
	st.s.Text = append(st.s.Text, r)
	st.appendCharacter(b)
}

func (st *step) graphicsColumn(b byte) {
	s := st.s
	if s.Column >= Columns {
		st.logger.Warn("Graphics column beyond end of line",
			zap.Int("column", s.Column),
			zap.Int("remaining", s.Remaining),
		)
		st.flush()
	}

	st.appendColumn(b)

	s.Remaining--
	if s.Remaining <= 0 {
		s.Remaining = 0
		s.Mode = ModeText
	}
}

func (st *step) resolve(b byte) {
	s := st.s
	s.Mode = ModeText

	code := escape.Resolve(b)
	switch code {
	case escape.StartDoubleWide:
		s.DoubleWide = true
	case escape.StopDoubleWide:
		s.DoubleWide = false
	case escape.StartUnderline:
		s.Underline = true
	case escape.StopUnderline:
		s.Underline = false
	case escape.StartAltCharset:
		s.AltCharset = true
	case escape.StopAltCharset:
		s.AltCharset = false
	case escape.Reset:
		s.reset()
	case escape.SelfTest:
		s.reset()
		st.selfTest()
	default:
		length := escape.GraphicsLength(b)
		if length < 1 || length > Columns {
			st.logger.Warn("Invalid graphics length", zap.Int("length", length))
		}
		if length > 0 {
			s.Remaining = length
			s.Mode = ModeGraphics
		}
		return
	}
	st.logger.Debug("Escape code", zap.Stringer("code", code))
}

// flush hands the current line to the caller and starts a new one
func (st *step) flush() {
	s := st.s
	st.lines = append(st.lines, Line{Text: string(s.Text), Bitmap: s.Page})
	s.Text = s.Text[:0]
	s.Page.Clear()
	s.Column = 0
}
