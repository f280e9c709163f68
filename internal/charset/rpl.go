// internal/charset/rpl.go
package charset

// RPL is the alternate character set selected by the iso8859 escape. The
// upper 96 positions follow ISO 8859-1.
var RPL = register(newCharset("RPL", rplTable()), "ecma94", "iso8859", "alt")

func rplTable() []rune {
	table := append(lowerHalf(),
		// 0x80, x-bar is approximated by U+2A30
		'∡', '⨰', '∇', '√', '∫', 'Σ', '▶', 'π',
		'∂', '≤', '≥', '≠', 'α', '→', '←', '↓',
		// 0x90
		'↑', 'γ', 'δ', 'ε', 'η', 'θ', 'λ', 'ρ',
		'σ', 'τ', 'ω', 'Δ', 'Π', 'Ω', '■', '∞',
	)
	for i := 0xA0; i <= 0xFF; i++ {
		table = append(table, rune(i))
	}
	return table
}
