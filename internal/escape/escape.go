// internal/escape/escape.go
package escape

import "strings"

// Introducer starts an escape sequence
const Introducer byte = 0x1B

// Code is a printer control code bound to the byte following ESC
type Code byte

// Control codes, by the byte that selects them
const (
	GraphicsMode    Code = 0x00
	StopAltCharset  Code = 0xF8
	StartAltCharset Code = 0xF9
	StopUnderline   Code = 0xFA
	StartUnderline  Code = 0xFB
	StopDoubleWide  Code = 0xFC
	StartDoubleWide Code = 0xFD
	SelfTest        Code = 0xFE
	Reset           Code = 0xFF
)

// firstReserved is the lowest byte bound to a named code
const firstReserved = 0xF8

var reserved = [8]Code{
	StopAltCharset,
	StartAltCharset,
	StopUnderline,
	StartUnderline,
	StopDoubleWide,
	StartDoubleWide,
	SelfTest,
	Reset,
}

var names = map[Code]string{
	GraphicsMode:    "graphics",
	StopAltCharset:  "end_iso8859",
	StartAltCharset: "iso8859",
	StopUnderline:   "end_underline",
	StartUnderline:  "underline",
	StopDoubleWide:  "end_doublewide",
	StartDoubleWide: "doublewide",
	SelfTest:        "selftest",
	Reset:           "reset",
}

var byName = func() map[string]Code {
	m := make(map[string]Code, len(names))
	for code, name := range names {
		m[name] = code
	}
	return m
}()

// Resolve maps the byte after ESC to a control code. Any byte outside the
// reserved range resolves to GraphicsMode; its value is the payload length.
func Resolve(b byte) Code {
	if b >= firstReserved {
		return reserved[b-firstReserved]
	}
	return GraphicsMode
}

// GraphicsLength returns the number of raw columns announced by b
func GraphicsLength(b byte) int {
	return int(b)
}

// IsReserved reports whether b selects a named control code
func IsReserved(b byte) bool {
	return b >= firstReserved
}

// ByName returns the code with the given name, ignoring case. Unknown names
// resolve to GraphicsMode and false.
func ByName(name string) (Code, bool) {
	code, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return GraphicsMode, false
	}
	return code, true
}

// Byte returns the byte that selects c
func (c Code) Byte() byte {
	return byte(c)
}

// String returns the code's name
func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return "graphics"
}

// Names returns all code names ordered by byte value
func Names() []string {
	out := []string{names[GraphicsMode]}
	for _, code := range reserved {
		out = append(out, names[code])
	}
	return out
}
