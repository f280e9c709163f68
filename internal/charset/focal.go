// internal/charset/focal.go
package charset

// Focal is the HP-41 character set. Only the lower 128 positions exist;
// the upper half decodes to utf8.RuneError.
var Focal = register(newCharset("FOCAL", focalTable()), "hp41")

func focalTable() []rune {
	table := []rune{
		// 0x00, 0x02 is x-bar approximated by U+2A30
		'♦', '∝', '⨰', '←', 'α', 'β', 'Γ', '↓',
		'Δ', 'σ', '♦', 'λ', 'μ', '∡', 'τ', 'Φ',
		// 0x10
		'θ', 'Ω', '&', 'Å', 'å', 'Ä', 'ä', 'Ö',
		'ö', 'Ü', 'ü', 'Æ', 'æ', '≠', '£', '▒',
	}
	for i := 0x20; i < 0x80; i++ {
		table = append(table, rune(i))
	}
	table[0x5E] = '↑'
	table[0x60] = '⊤'
	table[0x7B] = 'π'
	table[0x7D] = '→'
	table[0x7E] = 'Σ'
	table[0x7F] = '⊦'
	return table
}
