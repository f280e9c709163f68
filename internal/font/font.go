// internal/font/font.go
package font

import "hp82240-service/internal/charset"

// Width is the number of columns in a glyph
const Width = 5

// Glyph is one character cell. Each byte is a column, bit 0 is the top row.
type Glyph [Width]byte

func (g Glyph) or(other Glyph) Glyph {
	for i := range g {
		g[i] |= other[i]
	}
	return g
}

func (g Glyph) clearRow(row uint) Glyph {
	for i := range g {
		g[i] &^= 1 << row
	}
	return g
}

// WithUnderline returns a copy of g with the bottom row set
func (g Glyph) WithUnderline() Glyph {
	for i := range g {
		g[i] |= 0x80
	}
	return g
}

// Font maps a raw device byte to its printed shape
type Font interface {
	Glyph(b byte) Glyph
}

// Table is a font with a glyph for every byte value
type Table struct {
	name   string
	glyphs [256]Glyph
}

// NewTable builds a font that prints the characters of cs
func NewTable(name string, cs *charset.Charset) *Table {
	t := &Table{name: name}
	for i := range t.glyphs {
		t.glyphs[i] = runeGlyph(cs.Decode(byte(i)))
	}
	return t
}

// Glyph implements Font
func (t *Table) Glyph(b byte) Glyph {
	return t.glyphs[b]
}

// Name returns the font name
func (t *Table) Name() string {
	return t.name
}

// Override replaces the glyph of a single byte
func (t *Table) Override(b byte, g Glyph) *Table {
	t.glyphs[b] = g
	return t
}

// Set groups the three character ROMs of the printer family
type Set struct {
	ModelA Font
	ModelB Font
	RPL    Font
}

// Select returns the font used for the given printer model and charset state
func (s Set) Select(modelA, altCharset bool) Font {
	switch {
	case modelA:
		return s.ModelA
	case altCharset:
		return s.RPL
	default:
		return s.ModelB
	}
}

var (
	// HP82240A is the 82240A ROM. It prints 0x7F as a solid block.
	HP82240A = NewTable("HP82240A", charset.HP82240A).Override(0x7F, Glyph{0x7F, 0x7F, 0x7F, 0x7F, 0x7F})

	// HP82240B is the 82240B ROM in its default Roman-8 mode.
	HP82240B = NewTable("HP82240B", charset.HP82240A)

	// RPL is the 82240B ROM in its alternate charset mode.
	RPL = NewTable("RPL", charset.RPL)
)

// Default returns the built-in font set
func Default() Set {
	return Set{ModelA: HP82240A, ModelB: HP82240B, RPL: RPL}
}
