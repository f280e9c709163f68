// internal/charset/roman8.go
package charset

// HP82240A is the printer's native Roman-8 derived character set.
var HP82240A = register(newCharset("HP82240A", roman8Table()), "roman8", "hp-roman8")

// lowerHalf returns the 128 entries shared by the Roman-8 derived tables:
// ASCII and the C0 controls, with 0x7F printed as a medium shade.
func lowerHalf() []rune {
	table := make([]rune, 0, 256)
	for i := 0; i < 0x7F; i++ {
		table = append(table, rune(i))
	}
	return append(table, '▒')
}

func roman8Table() []rune {
	return append(lowerHalf(),
		// 0x80
		'\u00a0', '÷', '×', '√', '∫', 'Σ', '▶', 'π',
		'∂', '≤', '≥', '≠', 'α', '→', '←', 'μ',
		// 0x90
		'␊', '°', '«', '»', '⊦', '₁', '₂', '²',
		'³', 'ᵢ', 'ⱼ', '‥', 'ⁱ', 'ʲ', 'ᵏ', 'ⁿ',
		// 0xA0
		'∡', 'À', 'Â', 'È', 'Ê', 'Ë', 'Î', 'Ï',
		'´', 'ˋ', 'ˆ', '¨', '˜', 'Ù', 'Û', '₤',
		// 0xB0
		'¯', 'Ý', 'ý', '°', 'Ç', 'ç', 'Ñ', 'ñ',
		'¡', '¿', '¤', '£', '¥', '§', 'ƒ', '¢',
		// 0xC0
		'â', 'ê', 'ô', 'û', 'á', 'é', 'ó', 'ú',
		'à', 'è', 'ò', 'ù', 'ä', 'ë', 'ö', 'ü',
		// 0xD0
		'Å', 'î', 'Ø', 'Æ', 'å', 'í', 'ø', 'æ',
		'Ä', 'ì', 'Ö', 'Ü', 'É', 'ï', 'ß', 'Ô',
		// 0xE0
		'Á', 'Ã', 'ã', 'Ð', 'ð', 'Í', 'Ì', 'Ó',
		'Ò', 'Õ', 'õ', 'Š', 'š', 'Ú', 'Ÿ', 'ÿ',
		// 0xF0
		'Þ', 'þ', '·', 'µ', '¶', '¾', '—', '¼',
		'½', 'ª', 'º', '«', '■', '»', '±', '\uFFFD',
	)
}
