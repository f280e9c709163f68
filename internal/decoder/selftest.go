// internal/decoder/selftest.go
package decoder

import "hp82240-service/internal/charset"

const (
	selfTestFirst   = 32
	selfTestLast    = 254
	selfTestPerLine = 24
)

// selfTest prints the printer's power-on self-test page: the full character
// repertoire, the firmware marker and the battery indicator.
func (st *step) selfTest() {
	st.flush()

	for i, b := 0, selfTestFirst; b <= selfTestLast; i, b = i+1, b+1 {
		c := byte(b)
		if i == 0 {
			// the real printer starts with an underscore instead of a space
			c = '_'
		}
		st.putCharacter(charset.HP82240A.Decode(c), c)
		if (i+1)%selfTestPerLine == 0 {
			st.flush()
		}
	}

	st.print(" D")
	st.flush()
	st.flush()

	// battery level goes from 1 to 5
	st.print("BAT: 3")
	st.flush()
	st.flush()
}

// print appends ASCII text to the current line
func (st *step) print(text string) {
	for i := 0; i < len(text); i++ {
		st.putCharacter(rune(text[i]), text[i])
	}
}
