package font

import (
	"testing"

	"hp82240-service/internal/charset"
)

func TestASCIIGlyphs(t *testing.T) {
	tests := []struct {
		b    byte
		want Glyph
	}{
		{'A', Glyph{0x7E, 0x11, 0x11, 0x11, 0x7E}},
		{'0', Glyph{0x3E, 0x51, 0x49, 0x45, 0x3E}},
		{'_', Glyph{0x40, 0x40, 0x40, 0x40, 0x40}},
		{' ', Glyph{}},
	}
	for _, tt := range tests {
		if got := HP82240B.Glyph(tt.b); got != tt.want {
			t.Errorf("Glyph(%q) = % X, want % X", tt.b, got, tt.want)
		}
	}
}

func TestGlyphsLeaveUnderlineRowFree(t *testing.T) {
	for _, f := range []*Table{HP82240A, HP82240B, RPL} {
		for i := 0; i < 256; i++ {
			for _, col := range f.Glyph(byte(i)) {
				if col&0x80 != 0 {
					t.Fatalf("%s: glyph 0x%02X uses the underline row", f.Name(), i)
				}
			}
		}
	}
}

func TestPrintableRangeHasShapes(t *testing.T) {
	for b := 32; b <= 254; b++ {
		if r := charset.HP82240A.Decode(byte(b)); r == ' ' || r == '\u00a0' {
			continue
		}
		if HP82240B.Glyph(byte(b)) == (Glyph{}) {
			t.Errorf("glyph 0x%02X is blank", b)
		}
	}
}

func TestComposedAccent(t *testing.T) {
	e := HP82240B.Glyph('e')
	eAcute := HP82240B.Glyph(0xC5) // é
	if e == eAcute {
		t.Fatal("é must differ from e")
	}
	for i := range e {
		if eAcute[i]&e[i] != e[i] {
			t.Errorf("column %d of é lost pixels of e", i)
		}
	}
}

func TestUnknownRuneIsBox(t *testing.T) {
	if got := HP82240B.Glyph(0xFF); got != box {
		t.Errorf("0xFF glyph = % X, want box", got)
	}
}

func TestWithUnderlineCopies(t *testing.T) {
	g := HP82240B.Glyph('A')
	u := g.WithUnderline()
	for i := range u {
		if u[i] != g[i]|0x80 {
			t.Errorf("column %d = %02X", i, u[i])
		}
	}
	if HP82240B.Glyph('A') != g {
		t.Error("font table was modified")
	}
}

func TestSelect(t *testing.T) {
	s := Default()
	if s.Select(true, true) != s.ModelA {
		t.Error("model A must ignore the alternate charset")
	}
	if s.Select(false, true) != s.RPL {
		t.Error("alternate charset must select RPL")
	}
	if s.Select(false, false) != s.ModelB {
		t.Error("default must be the 82240B font")
	}
	if HP82240A.Glyph(0x7F) == HP82240B.Glyph(0x7F) {
		t.Error("ROMs differ at 0x7F")
	}
	if RPL.Glyph(0x81) == HP82240B.Glyph(0x81) {
		t.Error("RPL 0x81 prints x-bar")
	}
}
