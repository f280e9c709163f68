// internal/font/glyphs.go
package font

// Column bytes, bit 0 at the top row. Row 7 is left free for the underline.
var asciiGlyphs = [95]Glyph{
	{0x00, 0x00, 0x00, 0x00, 0x00}, // space
	{0x00, 0x00, 0x5F, 0x00, 0x00}, // !
	{0x00, 0x07, 0x00, 0x07, 0x00}, // "
	{0x14, 0x7F, 0x14, 0x7F, 0x14}, // #
	{0x24, 0x2A, 0x7F, 0x2A, 0x12}, // $
	{0x23, 0x13, 0x08, 0x64, 0x62}, // %
	{0x36, 0x49, 0x55, 0x22, 0x50}, // &
	{0x00, 0x05, 0x03, 0x00, 0x00}, // '
	{0x00, 0x1C, 0x22, 0x41, 0x00}, // (
	{0x00, 0x41, 0x22, 0x1C, 0x00}, // )
	{0x14, 0x08, 0x3E, 0x08, 0x14}, // *
	{0x08, 0x08, 0x3E, 0x08, 0x08}, // +
	{0x00, 0x50, 0x30, 0x00, 0x00}, // ,
	{0x08, 0x08, 0x08, 0x08, 0x08}, // -
	{0x00, 0x60, 0x60, 0x00, 0x00}, // .
	{0x20, 0x10, 0x08, 0x04, 0x02}, // /
	{0x3E, 0x51, 0x49, 0x45, 0x3E}, // 0
	{0x00, 0x42, 0x7F, 0x40, 0x00}, // 1
	{0x42, 0x61, 0x51, 0x49, 0x46}, // 2
	{0x21, 0x41, 0x45, 0x4B, 0x31}, // 3
	{0x18, 0x14, 0x12, 0x7F, 0x10}, // 4
	{0x27, 0x45, 0x45, 0x45, 0x39}, // 5
	{0x3C, 0x4A, 0x49, 0x49, 0x30}, // 6
	{0x01, 0x71, 0x09, 0x05, 0x03}, // 7
	{0x36, 0x49, 0x49, 0x49, 0x36}, // 8
	{0x06, 0x49, 0x49, 0x29, 0x1E}, // 9
	{0x00, 0x36, 0x36, 0x00, 0x00}, // :
	{0x00, 0x56, 0x36, 0x00, 0x00}, // ;
	{0x08, 0x14, 0x22, 0x41, 0x00}, // <
	{0x14, 0x14, 0x14, 0x14, 0x14}, // =
	{0x00, 0x41, 0x22, 0x14, 0x08}, // >
	{0x02, 0x01, 0x51, 0x09, 0x06}, // ?
	{0x32, 0x49, 0x79, 0x41, 0x3E}, // @
	{0x7E, 0x11, 0x11, 0x11, 0x7E}, // A
	{0x7F, 0x49, 0x49, 0x49, 0x36}, // B
	{0x3E, 0x41, 0x41, 0x41, 0x22}, // C
	{0x7F, 0x41, 0x41, 0x22, 0x1C}, // D
	{0x7F, 0x49, 0x49, 0x49, 0x41}, // E
	{0x7F, 0x09, 0x09, 0x09, 0x01}, // F
	{0x3E, 0x41, 0x49, 0x49, 0x7A}, // G
	{0x7F, 0x08, 0x08, 0x08, 0x7F}, // H
	{0x00, 0x41, 0x7F, 0x41, 0x00}, // I
	{0x20, 0x40, 0x41, 0x3F, 0x01}, // J
	{0x7F, 0x08, 0x14, 0x22, 0x41}, // K
	{0x7F, 0x40, 0x40, 0x40, 0x40}, // L
	{0x7F, 0x02, 0x0C, 0x02, 0x7F}, // M
	{0x7F, 0x04, 0x08, 0x10, 0x7F}, // N
	{0x3E, 0x41, 0x41, 0x41, 0x3E}, // O
	{0x7F, 0x09, 0x09, 0x09, 0x06}, // P
	{0x3E, 0x41, 0x51, 0x21, 0x5E}, // Q
	{0x7F, 0x09, 0x19, 0x29, 0x46}, // R
	{0x46, 0x49, 0x49, 0x49, 0x31}, // S
	{0x01, 0x01, 0x7F, 0x01, 0x01}, // T
	{0x3F, 0x40, 0x40, 0x40, 0x3F}, // U
	{0x1F, 0x20, 0x40, 0x20, 0x1F}, // V
	{0x3F, 0x40, 0x38, 0x40, 0x3F}, // W
	{0x63, 0x14, 0x08, 0x14, 0x63}, // X
	{0x07, 0x08, 0x70, 0x08, 0x07}, // Y
	{0x61, 0x51, 0x49, 0x45, 0x43}, // Z
	{0x00, 0x7F, 0x41, 0x41, 0x00}, // [
	{0x02, 0x04, 0x08, 0x10, 0x20}, // backslash
	{0x00, 0x41, 0x41, 0x7F, 0x00}, // ]
	{0x04, 0x02, 0x01, 0x02, 0x04}, // ^
	{0x40, 0x40, 0x40, 0x40, 0x40}, // _
	{0x00, 0x01, 0x02, 0x04, 0x00}, // `
	{0x20, 0x54, 0x54, 0x54, 0x78}, // a
	{0x7F, 0x48, 0x44, 0x44, 0x38}, // b
	{0x38, 0x44, 0x44, 0x44, 0x20}, // c
	{0x38, 0x44, 0x44, 0x48, 0x7F}, // d
	{0x38, 0x54, 0x54, 0x54, 0x18}, // e
	{0x08, 0x7E, 0x09, 0x01, 0x02}, // f
	{0x0C, 0x52, 0x52, 0x52, 0x3E}, // g
	{0x7F, 0x08, 0x04, 0x04, 0x78}, // h
	{0x00, 0x44, 0x7D, 0x40, 0x00}, // i
	{0x20, 0x40, 0x44, 0x3D, 0x00}, // j
	{0x7F, 0x10, 0x28, 0x44, 0x00}, // k
	{0x00, 0x41, 0x7F, 0x40, 0x00}, // l
	{0x7C, 0x04, 0x18, 0x04, 0x78}, // m
	{0x7C, 0x08, 0x04, 0x04, 0x78}, // n
	{0x38, 0x44, 0x44, 0x44, 0x38}, // o
	{0x7C, 0x14, 0x14, 0x14, 0x08}, // p
	{0x08, 0x14, 0x14, 0x18, 0x7C}, // q
	{0x7C, 0x08, 0x04, 0x04, 0x08}, // r
	{0x48, 0x54, 0x54, 0x54, 0x20}, // s
	{0x04, 0x3F, 0x44, 0x40, 0x20}, // t
	{0x3C, 0x40, 0x40, 0x20, 0x7C}, // u
	{0x1C, 0x20, 0x40, 0x20, 0x1C}, // v
	{0x3C, 0x40, 0x30, 0x40, 0x3C}, // w
	{0x44, 0x28, 0x10, 0x28, 0x44}, // x
	{0x0C, 0x50, 0x50, 0x50, 0x3C}, // y
	{0x44, 0x64, 0x54, 0x4C, 0x44}, // z
	{0x00, 0x08, 0x36, 0x41, 0x00}, // {
	{0x00, 0x00, 0x7F, 0x00, 0x00}, // |
	{0x00, 0x41, 0x36, 0x08, 0x00}, // }
	{0x08, 0x04, 0x08, 0x10, 0x08}, // ~
}

// box is printed for characters the ROM has no shape for
var box = Glyph{0x7F, 0x41, 0x41, 0x41, 0x7F}

var symbolGlyphs = map[rune]Glyph{
	'\u00a0': {0x00, 0x00, 0x00, 0x00, 0x00},

	'▒': {0x55, 0x2A, 0x55, 0x2A, 0x55},
	'■': {0x3E, 0x3E, 0x3E, 0x3E, 0x3E},
	'÷': {0x08, 0x08, 0x2A, 0x08, 0x08},
	'×': {0x22, 0x14, 0x08, 0x14, 0x22},
	'√': {0x10, 0x20, 0x7F, 0x01, 0x01},
	'∫': {0x20, 0x40, 0x3E, 0x01, 0x02},
	'Σ': {0x63, 0x55, 0x49, 0x41, 0x41},
	'▶': {0x7F, 0x3E, 0x1C, 0x08, 0x00},
	'π': {0x04, 0x7C, 0x04, 0x7C, 0x04},
	'∂': {0x30, 0x49, 0x4A, 0x4C, 0x38},
	'≤': {0x40, 0x44, 0x4A, 0x51, 0x40},
	'≥': {0x40, 0x51, 0x4A, 0x44, 0x40},
	'≠': {0x14, 0x34, 0x1C, 0x16, 0x14},
	'α': {0x38, 0x44, 0x44, 0x38, 0x44},
	'→': {0x08, 0x08, 0x2A, 0x1C, 0x08},
	'←': {0x08, 0x1C, 0x2A, 0x08, 0x08},
	'↑': {0x04, 0x02, 0x7F, 0x02, 0x04},
	'↓': {0x10, 0x20, 0x7F, 0x20, 0x10},
	'μ': {0x7C, 0x20, 0x20, 0x1C, 0x20},
	'µ': {0x7C, 0x20, 0x20, 0x1C, 0x20},
	'␊': {0x1F, 0x10, 0x7C, 0x14, 0x04},
	'°': {0x00, 0x06, 0x09, 0x09, 0x06},
	'«': {0x08, 0x14, 0x2A, 0x14, 0x22},
	'»': {0x22, 0x14, 0x2A, 0x14, 0x08},
	'⊦': {0x7F, 0x08, 0x08, 0x08, 0x00},
	'⊤': {0x01, 0x01, 0x7F, 0x01, 0x01},
	'₁': {0x00, 0x44, 0x7C, 0x40, 0x00},
	'₂': {0x48, 0x64, 0x54, 0x48, 0x00},
	'²': {0x09, 0x0D, 0x0B, 0x00, 0x00},
	'³': {0x09, 0x0B, 0x06, 0x00, 0x00},
	'ᵢ': {0x00, 0x48, 0x7A, 0x40, 0x00},
	'ⱼ': {0x40, 0x40, 0x3A, 0x00, 0x00},
	'‥': {0x00, 0x40, 0x00, 0x40, 0x00},
	'ⁱ': {0x00, 0x0D, 0x00, 0x00, 0x00},
	'ʲ': {0x08, 0x08, 0x07, 0x00, 0x00},
	'ᵏ': {0x0F, 0x04, 0x0A, 0x00, 0x00},
	'ⁿ': {0x0E, 0x02, 0x0C, 0x00, 0x00},
	'∡': {0x40, 0x60, 0x50, 0x7C, 0x44},
	'´': {0x00, 0x00, 0x02, 0x01, 0x00},
	'ˋ': {0x00, 0x01, 0x02, 0x00, 0x00},
	'ˆ': {0x00, 0x02, 0x01, 0x02, 0x00},
	'¨': {0x00, 0x01, 0x00, 0x01, 0x00},
	'˜': {0x02, 0x01, 0x02, 0x01, 0x00},
	'₤': {0x48, 0x7E, 0x4B, 0x41, 0x42},
	'£': {0x48, 0x7E, 0x49, 0x41, 0x42},
	'¯': {0x01, 0x01, 0x01, 0x01, 0x01},
	'¡': {0x00, 0x00, 0x7D, 0x00, 0x00},
	'¿': {0x30, 0x48, 0x45, 0x40, 0x20},
	'¤': {0x22, 0x1C, 0x14, 0x1C, 0x22},
	'¥': {0x2B, 0x2C, 0x78, 0x2C, 0x2B},
	'§': {0x0A, 0x55, 0x55, 0x55, 0x28},
	'ƒ': {0x48, 0x7E, 0x09, 0x01, 0x02},
	'¢': {0x18, 0x24, 0x66, 0x24, 0x00},
	'ß': {0x7E, 0x09, 0x49, 0x36, 0x00},
	'Ç': {0x0E, 0x11, 0x31, 0x11, 0x0A},
	'ç': {0x18, 0x24, 0x64, 0x24, 0x00},
	'Ø': {0x5E, 0x31, 0x49, 0x46, 0x3D},
	'ø': {0x58, 0x64, 0x54, 0x4C, 0x34},
	'Æ': {0x7E, 0x09, 0x7F, 0x49, 0x49},
	'æ': {0x20, 0x54, 0x78, 0x54, 0x58},
	'Å': {0x78, 0x16, 0x15, 0x16, 0x78},
	'Ð': {0x08, 0x7F, 0x49, 0x41, 0x3E},
	'ð': {0x30, 0x4A, 0x4D, 0x49, 0x30},
	'Þ': {0x7F, 0x14, 0x14, 0x14, 0x08},
	'þ': {0x7F, 0x28, 0x44, 0x44, 0x38},
	'·': {0x00, 0x00, 0x08, 0x00, 0x00},
	'¶': {0x06, 0x0F, 0x7F, 0x01, 0x7F},
	'¼': {0x17, 0x08, 0x34, 0x2A, 0x78},
	'½': {0x17, 0x08, 0x04, 0x6A, 0x58},
	'¾': {0x15, 0x1F, 0x28, 0x34, 0x7A},
	'—': {0x08, 0x08, 0x08, 0x08, 0x08},
	'ª': {0x26, 0x29, 0x29, 0x2F, 0x28},
	'º': {0x26, 0x29, 0x29, 0x26, 0x00},
	'±': {0x44, 0x44, 0x5F, 0x44, 0x44},
	'⨰': {0x45, 0x29, 0x11, 0x29, 0x45},
	'∇': {0x07, 0x19, 0x61, 0x19, 0x07},
	'γ': {0x0C, 0x50, 0x60, 0x50, 0x0C},
	'δ': {0x30, 0x4B, 0x4D, 0x49, 0x30},
	'ε': {0x28, 0x54, 0x54, 0x44, 0x00},
	'η': {0x7C, 0x08, 0x04, 0x04, 0x78},
	'θ': {0x3E, 0x49, 0x49, 0x49, 0x3E},
	'λ': {0x40, 0x21, 0x12, 0x0C, 0x70},
	'ρ': {0x7C, 0x12, 0x12, 0x12, 0x0C},
	'σ': {0x38, 0x44, 0x44, 0x4C, 0x34},
	'τ': {0x04, 0x3C, 0x44, 0x04, 0x04},
	'ω': {0x38, 0x40, 0x30, 0x40, 0x38},
	'Δ': {0x60, 0x58, 0x46, 0x58, 0x60},
	'Π': {0x01, 0x7F, 0x01, 0x7F, 0x01},
	'Ω': {0x5E, 0x61, 0x01, 0x61, 0x5E},
	'∞': {0x18, 0x24, 0x18, 0x24, 0x18},
	'♦': {0x08, 0x1C, 0x3E, 0x1C, 0x08},
	'∝': {0x38, 0x44, 0x38, 0x44, 0x40},
	'β': {0x7E, 0x29, 0x29, 0x16, 0x00},
	'Γ': {0x7F, 0x01, 0x01, 0x01, 0x01},
	'Φ': {0x1C, 0x22, 0x7F, 0x22, 0x1C},
}

type accent int

const (
	acute accent = iota
	grave
	circumflex
	diaeresis
	tilde
	ring
	caron
)

// Lowercase letters leave rows 0 and 1 free for the mark; capitals give up
// their top row to it.
var lowerMarks = map[accent]Glyph{
	acute:      {0x00, 0x00, 0x02, 0x01, 0x00},
	grave:      {0x00, 0x01, 0x02, 0x00, 0x00},
	circumflex: {0x00, 0x02, 0x01, 0x02, 0x00},
	diaeresis:  {0x00, 0x01, 0x00, 0x01, 0x00},
	tilde:      {0x02, 0x01, 0x02, 0x01, 0x00},
	ring:       {0x00, 0x02, 0x05, 0x02, 0x00},
	caron:      {0x00, 0x01, 0x02, 0x01, 0x00},
}

var upperMarks = map[accent]Glyph{
	acute:      {0x00, 0x00, 0x00, 0x01, 0x00},
	grave:      {0x00, 0x01, 0x00, 0x00, 0x00},
	circumflex: {0x00, 0x01, 0x00, 0x01, 0x00},
	diaeresis:  {0x01, 0x00, 0x00, 0x00, 0x01},
	tilde:      {0x01, 0x00, 0x01, 0x00, 0x01},
	ring:       {0x00, 0x00, 0x01, 0x00, 0x00},
	caron:      {0x00, 0x01, 0x00, 0x01, 0x00},
}

type composed struct {
	base rune
	mark accent
}

var composedGlyphs = map[rune]composed{
	'À': {'A', grave}, 'Á': {'A', acute}, 'Â': {'A', circumflex}, 'Ã': {'A', tilde}, 'Ä': {'A', diaeresis},
	'È': {'E', grave}, 'É': {'E', acute}, 'Ê': {'E', circumflex}, 'Ë': {'E', diaeresis},
	'Ì': {'I', grave}, 'Í': {'I', acute}, 'Î': {'I', circumflex}, 'Ï': {'I', diaeresis},
	'Ò': {'O', grave}, 'Ó': {'O', acute}, 'Ô': {'O', circumflex}, 'Õ': {'O', tilde}, 'Ö': {'O', diaeresis},
	'Ù': {'U', grave}, 'Ú': {'U', acute}, 'Û': {'U', circumflex}, 'Ü': {'U', diaeresis},
	'Ý': {'Y', acute}, 'Ÿ': {'Y', diaeresis}, 'Ñ': {'N', tilde}, 'Š': {'S', caron},
	'à': {'a', grave}, 'á': {'a', acute}, 'â': {'a', circumflex}, 'ã': {'a', tilde}, 'ä': {'a', diaeresis}, 'å': {'a', ring},
	'è': {'e', grave}, 'é': {'e', acute}, 'ê': {'e', circumflex}, 'ë': {'e', diaeresis},
	'ì': {'ı', grave}, 'í': {'ı', acute}, 'î': {'ı', circumflex}, 'ï': {'ı', diaeresis},
	'ò': {'o', grave}, 'ó': {'o', acute}, 'ô': {'o', circumflex}, 'õ': {'o', tilde}, 'ö': {'o', diaeresis},
	'ù': {'u', grave}, 'ú': {'u', acute}, 'û': {'u', circumflex}, 'ü': {'u', diaeresis},
	'ý': {'y', acute}, 'ÿ': {'y', diaeresis}, 'ñ': {'n', tilde}, 'š': {'s', caron},
}

// dotless i carries the marks of í, ì, î and ï
var dotlessI = Glyph{0x00, 0x44, 0x7C, 0x40, 0x00}

// runeGlyph returns the shape of r, composing accented letters from their
// base letter.
func runeGlyph(r rune) Glyph {
	if r >= 0x20 && r <= 0x7E {
		return asciiGlyphs[r-0x20]
	}
	if g, ok := symbolGlyphs[r]; ok {
		return g
	}
	if c, ok := composedGlyphs[r]; ok {
		var base Glyph
		if c.base == 'ı' {
			base = dotlessI
		} else {
			base = asciiGlyphs[c.base-0x20]
		}
		if c.base >= 'A' && c.base <= 'Z' {
			return base.clearRow(0).or(upperMarks[c.mark])
		}
		return base.or(lowerMarks[c.mark])
	}
	return box
}
