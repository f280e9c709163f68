// internal/decoder/assembler.go
package decoder

import (
	"go.uber.org/zap"

	"hp82240-service/internal/font"
)

// A character needs its five columns plus the left padding column to fit.
const (
	lastStartSingle = Columns - (font.Width + 1)
	lastStartDouble = Columns - 2*(font.Width+1)
)

// put writes one column at the cursor. Columns past the page edge are dropped.
func (st *step) put(bits byte) {
	s := st.s
	if s.Column >= Columns {
		st.logger.Debug("Column beyond end of line dropped",
			zap.Int("column", s.Column),
			zap.Uint8("bits", bits),
		)
		return
	}
	s.Page.SetColumn(s.Column, bits)
	s.Column++
}

// appendColumn writes a raw column, underlined and doubled as the flags say
func (st *step) appendColumn(bits byte) {
	s := st.s
	if s.Column >= Columns {
		st.logger.Warn("Column too big", zap.Int("column", s.Column))
		return
	}
	if s.Underline {
		bits |= UnderlineBit
	}
	st.put(bits)
	if s.DoubleWide {
		st.put(bits)
	}
}

// wrapIfNeeded flushes the line when the next glyph does not fit on it
func (st *step) wrapIfNeeded() {
	s := st.s
	if (s.DoubleWide && s.Column > lastStartDouble) || (!s.DoubleWide && s.Column > lastStartSingle) {
		st.flush()
	}
}

// appendCharacter prints the glyph of b with its padding. The caller wraps
// the line first.
func (st *step) appendCharacter(b byte) {
	s := st.s

	// no padding before the first character of a line
	if s.Column != 0 {
		st.appendColumn(0)
	}

	glyph := st.fonts.Select(st.modelA, s.AltCharset).Glyph(b)
	if s.Underline {
		glyph = glyph.WithUnderline()
	}
	for _, bits := range glyph {
		st.put(bits)
		if s.DoubleWide {
			st.put(bits)
		}
	}

	// nor after the last one
	last := Columns - 1
	if s.DoubleWide {
		last = Columns - 2
	}
	if s.Column > last {
		return
	}
	st.appendColumn(0)
}
