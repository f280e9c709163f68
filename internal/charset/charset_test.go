package charset

import (
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

func TestHP82240AEncode(t *testing.T) {
	tests := []struct {
		r    rune
		want byte
	}{
		{' ', 32},
		{'A', 0x41},
		{'±', 254},
		{'Ñ', 0xB6},
		{'√', 0x83},
		{'°', 0xB3},
		{'«', 0xFB},
		{'»', 0xFD},
		{'▒', 0x7F},
	}
	for _, tt := range tests {
		got, err := HP82240A.Encode(tt.r)
		if err != nil {
			t.Fatalf("Encode(%q) returned error: %v", tt.r, err)
		}
		if got != tt.want {
			t.Errorf("Encode(%q) = 0x%02X, want 0x%02X", tt.r, got, tt.want)
		}
	}
}

func TestHP82240ADecode(t *testing.T) {
	if got := HP82240A.Decode(254); got != '±' {
		t.Errorf("Decode(254) = %q, want ±", got)
	}
	if got := HP82240A.Decode(255); got != utf8.RuneError {
		t.Errorf("Decode(255) = %q, want U+FFFD", got)
	}
	if got := HP82240A.Decode(0x80); got != '\u00a0' {
		t.Errorf("Decode(0x80) = %U, want U+00A0", got)
	}
}

func TestDecodeIsTotal(t *testing.T) {
	for _, cs := range []*Charset{HP82240A, RPL, Focal} {
		for i := 0; i < 256; i++ {
			if r := cs.Decode(byte(i)); !utf8.ValidRune(r) {
				t.Errorf("%s: Decode(0x%02X) = %U is not a valid rune", cs.Name(), i, r)
			}
		}
	}
}

func TestRoundTripPrintableASCII(t *testing.T) {
	for _, cs := range []*Charset{HP82240A, RPL} {
		for b := 0x20; b <= 0x7E; b++ {
			r := cs.Decode(byte(b))
			if r != rune(b) {
				t.Fatalf("%s: Decode(0x%02X) = %q, want %q", cs.Name(), b, r, rune(b))
			}
			got, err := cs.Encode(r)
			if err != nil || got != byte(b) {
				t.Fatalf("%s: Encode(%q) = 0x%02X, %v", cs.Name(), r, got, err)
			}
		}
	}
}

func TestRoundTripUnique(t *testing.T) {
	for _, cs := range []*Charset{HP82240A, RPL, Focal} {
		for i := 0; i < cs.Defined(); i++ {
			r := cs.Decode(byte(i))
			got, err := cs.Encode(r)
			if err != nil {
				t.Fatalf("%s: Encode(Decode(0x%02X)) failed: %v", cs.Name(), i, err)
			}
			if cs.Decode(got) != r {
				t.Errorf("%s: 0x%02X round trips to 0x%02X with a different rune", cs.Name(), i, got)
			}
		}
	}
}

func TestRPLUpperHalfIsLatin1(t *testing.T) {
	for b := 0xA0; b <= 0xFF; b++ {
		if got := RPL.Decode(byte(b)); got != rune(b) {
			t.Errorf("RPL.Decode(0x%02X) = %U", b, got)
		}
	}
	if got := RPL.Decode(0x81); got != '⨰' {
		t.Errorf("RPL.Decode(0x81) = %q, want ⨰", got)
	}
}

func TestFocal(t *testing.T) {
	tests := []struct {
		b    byte
		want rune
	}{
		{0x00, '♦'},
		{0x12, '&'},
		{0x41, 'A'},
		{0x5E, '↑'},
		{0x60, '⊤'},
		{0x7B, 'π'},
		{0x7D, '→'},
		{0x7E, 'Σ'},
		{0x7F, '⊦'},
		{0x80, utf8.RuneError},
		{0xFF, utf8.RuneError},
	}
	for _, tt := range tests {
		if got := Focal.Decode(tt.b); got != tt.want {
			t.Errorf("Focal.Decode(0x%02X) = %q, want %q", tt.b, got, tt.want)
		}
	}

	// duplicates keep the highest byte
	if b, _ := Focal.Encode('♦'); b != 0x0A {
		t.Errorf("Focal.Encode(♦) = 0x%02X, want 0x0A", b)
	}
	if b, _ := Focal.Encode('&'); b != 0x26 {
		t.Errorf("Focal.Encode(&) = 0x%02X, want 0x26", b)
	}
	if _, err := Focal.Encode('^'); !errors.Is(err, ErrUnmappable) {
		t.Errorf("Focal.Encode(^) error = %v, want ErrUnmappable", err)
	}
}

func TestEncodeUnmappable(t *testing.T) {
	_, err := HP82240A.Encode('€')
	if !errors.Is(err, ErrUnmappable) {
		t.Fatalf("expected ErrUnmappable, got %v", err)
	}
	var ue *UnmappableError
	if !errors.As(err, &ue) || ue.Rune != '€' || ue.Charset != "HP82240A" {
		t.Fatalf("unexpected error detail: %#v", err)
	}

	got, err := HP82240A.EncodeString("ab€c")
	if !errors.Is(err, ErrUnmappable) {
		t.Fatalf("EncodeString error = %v", err)
	}
	if string(got) != "ab" {
		t.Errorf("EncodeString prefix = %q, want ab", got)
	}
}

func TestEncodingInterface(t *testing.T) {
	var enc encoding.Encoding = HP82240A

	decoded, err := enc.NewDecoder().Bytes([]byte{0x41, 0xB6, 0x83})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "AÑ√" {
		t.Errorf("decoded = %q, want AÑ√", decoded)
	}

	encoded, err := enc.NewEncoder().String("AÑ√")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if encoded != "\x41\xb6\x83" {
		t.Errorf("encoded = %x", encoded)
	}

	if _, err := enc.NewEncoder().String("x€"); !errors.Is(err, ErrUnmappable) {
		t.Errorf("expected ErrUnmappable from encoder, got %v", err)
	}

	replaced, err := encoding.ReplaceUnsupported(enc.NewEncoder()).String("x€y")
	if err != nil {
		t.Fatalf("replace unsupported: %v", err)
	}
	if replaced != "x?y" {
		t.Errorf("replaced = %q, want x?y", replaced)
	}
}

func TestDecoderReader(t *testing.T) {
	src := strings.NewReader(string([]byte{0x48, 0x50, 0x8D, 0x34, 0x31}))
	out, err := io.ReadAll(transform.NewReader(src, RPL.NewDecoder()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(out) != "HP→41" {
		t.Errorf("got %q", out)
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]*Charset{
		"hp82240a": HP82240A,
		"Roman8":   HP82240A,
		"rpl":      RPL,
		" ISO8859": RPL,
		"focal":    Focal,
	} {
		got, err := ByName(name)
		if err != nil || got != want {
			t.Errorf("ByName(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ByName("ebcdic"); err == nil {
		t.Error("expected error for unknown charset")
	}
}
