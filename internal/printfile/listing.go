// internal/printfile/listing.go
package printfile

import (
	"encoding/hex"
	"fmt"
	"strings"

	"hp82240-service/internal/escape"
)

// CharListing builds a print file showing every printable code in both
// charsets: the decimal code, the glyph in the native set and the glyph in
// the alternate set, one code per line.
func CharListing() *File {
	f := &File{
		Title:   "Character listing",
		Purpose: "Print all characters of the HP82240 in both character sets",
	}
	for i := 32; i < 256; i++ {
		code := byte(i)
		var line []byte
		line = append(line, fmt.Sprintf("%3d  ", i)...)
		line = append(line, code, ' ', ' ')
		line = append(line, escape.Introducer, escape.StartAltCharset.Byte(), code)
		line = append(line, escape.Introducer, escape.StopAltCharset.Byte(), 0x04)

		h := strings.ToUpper(hex.EncodeToString(line))
		f.Data = append(f.Data, Entry{Hex: &h})
	}
	return f
}
