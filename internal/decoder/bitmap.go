// internal/decoder/bitmap.go
package decoder

// Page geometry of one printed line
const (
	Columns = 166
	Rows    = 8

	// UnderlineBit is the bottom row of a column
	UnderlineBit byte = 0x80
)

// Bitmap is one printed line: 166 columns of 8 pixels, row 0 at the top
type Bitmap [Columns][Rows]bool

// SetColumn overwrites column col with the pixels of bits. Bit i is row i.
func (b *Bitmap) SetColumn(col int, bits byte) {
	for row := 0; row < Rows; row++ {
		b[col][row] = bits&(1<<row) != 0
	}
}

// Column packs column col back into a byte
func (b *Bitmap) Column(col int) byte {
	var bits byte
	for row := 0; row < Rows; row++ {
		if b[col][row] {
			bits |= 1 << row
		}
	}
	return bits
}

// Width returns the number of columns
func (b *Bitmap) Width() int {
	return len(b)
}

// IsBlank reports whether no pixel is set
func (b *Bitmap) IsBlank() bool {
	for col := range b {
		for _, px := range b[col] {
			if px {
				return false
			}
		}
	}
	return true
}

// Clear resets every pixel
func (b *Bitmap) Clear() {
	*b = Bitmap{}
}

// Bytes returns the packed column bytes
func (b *Bitmap) Bytes() []byte {
	out := make([]byte, Columns)
	for col := range out {
		out[col] = b.Column(col)
	}
	return out
}

// BitmapFromBytes unpacks column bytes. Extra bytes are ignored.
func BitmapFromBytes(data []byte) Bitmap {
	var b Bitmap
	for col := 0; col < len(data) && col < Columns; col++ {
		b.SetColumn(col, data[col])
	}
	return b
}
