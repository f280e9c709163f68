// internal/charset/charset.go
package charset

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ErrUnmappable is returned when a rune has no byte in a charset
var ErrUnmappable = errors.New("unmappable character")

// UnmappableError describes a rune that cannot be encoded
type UnmappableError struct {
	Charset string
	Rune    rune
}

func (e *UnmappableError) Error() string {
	return fmt.Sprintf("%s: %q (U+%04X) in charset %s", ErrUnmappable, e.Rune, e.Rune, e.Charset)
}

// Is reports ErrUnmappable as the cause
func (e *UnmappableError) Is(target error) bool {
	return target == ErrUnmappable
}

// Replacement lets encoding.ReplaceUnsupported substitute a question mark.
func (e *UnmappableError) Replacement() byte {
	return '?'
}

// Charset is an immutable 8-bit character table with a partial inverse.
type Charset struct {
	name    string
	decode  [256]rune
	encode  map[rune]byte
	defined int
}

// newCharset builds a charset from table. Bytes not covered by table decode
// to utf8.RuneError and take no part in the inverse mapping. When a rune
// occurs more than once the highest byte wins.
func newCharset(name string, table []rune) *Charset {
	if len(table) > 256 {
		panic(fmt.Sprintf("charset %s: table has %d entries", name, len(table)))
	}

	cs := &Charset{
		name:    name,
		encode:  make(map[rune]byte, len(table)),
		defined: len(table),
	}
	for i := range cs.decode {
		cs.decode[i] = utf8.RuneError
	}
	for i, r := range table {
		cs.decode[i] = r
		cs.encode[r] = byte(i)
	}
	return cs
}

// Name returns the charset name
func (c *Charset) Name() string {
	return c.name
}

// Defined returns how many byte values carry a mapping
func (c *Charset) Defined() int {
	return c.defined
}

// Decode maps a device byte to its rune. It never fails.
func (c *Charset) Decode(b byte) rune {
	return c.decode[b]
}

// Encode maps a rune back to its device byte.
func (c *Charset) Encode(r rune) (byte, error) {
	b, ok := c.encode[r]
	if !ok {
		return 0, &UnmappableError{Charset: c.name, Rune: r}
	}
	return b, nil
}

// DecodeBytes decodes a whole byte slice
func (c *Charset) DecodeBytes(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(c.decode[b])
	}
	return sb.String()
}

// EncodeString encodes s, stopping at the first unmappable rune. The bytes
// encoded before the failure are returned with the error.
func (c *Charset) EncodeString(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, err := c.Encode(r)
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
	return out, nil
}

// NewDecoder implements encoding.Encoding.
func (c *Charset) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: &decoder{cs: c}}
}

// NewEncoder implements encoding.Encoding.
func (c *Charset) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: &encoder{cs: c}}
}

func (c *Charset) String() string {
	return c.name
}

type decoder struct {
	transform.NopResetter
	cs *Charset
}

func (d *decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r := d.cs.decode[src[nSrc]]
		if nDst+utf8.RuneLen(r) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc++
	}
	return nDst, nSrc, nil
}

type encoder struct {
	transform.NopResetter
	cs *Charset
}

func (e *encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])
		b, ok := e.cs.encode[r]
		if !ok || (r == utf8.RuneError && size == 1) {
			return nDst, nSrc, &UnmappableError{Charset: e.cs.name, Rune: r}
		}
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = b
		nDst++
		nSrc += size
	}
	return nDst, nSrc, nil
}

var registry = map[string]*Charset{}

func register(cs *Charset, aliases ...string) *Charset {
	registry[strings.ToLower(cs.name)] = cs
	for _, alias := range aliases {
		registry[strings.ToLower(alias)] = cs
	}
	return cs
}

// ByName looks a charset up by name or alias, ignoring case
func ByName(name string) (*Charset, error) {
	cs, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown charset: %s", name)
	}
	return cs, nil
}

// Names lists the canonical charset names
func Names() []string {
	return []string{HP82240A.name, RPL.name, Focal.name}
}
