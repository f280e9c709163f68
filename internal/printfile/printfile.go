// internal/printfile/printfile.go
package printfile

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"hp82240-service/internal/charset"
	"hp82240-service/internal/escape"
)

// ErrNoLineFeed reports a file whose last entry is not a line feed
var ErrNoLineFeed = errors.New("print file ends without a line feed")

// File is a human editable description of printer output
type File struct {
	Title   string  `yaml:"title"`
	Purpose string  `yaml:"purpose"`
	Data    []Entry `yaml:"hp82240PrintData"`
}

// Entry is one element of print data. Exactly one field is expected to be
// set; the first non-empty one in declaration order wins.
type Entry struct {
	Text     *string `yaml:"text,omitempty"`
	Graphic  *string `yaml:"graphic,omitempty"`
	Linefeed *string `yaml:"linefeed,omitempty"`
	Esc      *string `yaml:"esc,omitempty"`
	Hex      *string `yaml:"hex,omitempty"`
}

// Parse decodes a print file
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse print file: %w", err)
	}
	return &f, nil
}

// ParseFile reads and decodes the print file at path
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open print file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Marshal encodes f as YAML
func Marshal(f *File) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("failed to encode print file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Reader converts the entries of a file into printer bytes, one printed
// line at a time.
type Reader struct {
	file    *File
	cs      *charset.Charset
	logger  *zap.Logger
	current int
}

// NewReader creates a reader. Text entries are encoded with cs, nil means
// the printer's native charset.
func NewReader(f *File, cs *charset.Charset, logger *zap.Logger) *Reader {
	if cs == nil {
		cs = charset.HP82240A
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Print file", zap.String("title", f.Title), zap.String("purpose", f.Purpose))
	return &Reader{file: f, cs: cs, logger: logger}
}

// HasNext reports whether entries remain
func (r *Reader) HasNext() bool {
	return r.current < len(r.file.Data)
}

// NextLine returns the bytes up to and including the next line feed. When
// the file ends first the partial line is returned with ErrNoLineFeed.
func (r *Reader) NextLine() ([]byte, error) {
	var line []byte
	for r.HasNext() {
		chunk, err := r.nextEntry()
		if err != nil {
			return line, err
		}
		line = append(line, chunk...)
		if endsWithLineFeed(line) {
			return line, nil
		}
	}
	r.logger.Warn("Print file ends without a line feed, printer output will be incomplete")
	return line, ErrNoLineFeed
}

// ReadAll returns the bytes of all remaining entries
func (r *Reader) ReadAll() ([]byte, error) {
	var out []byte
	for r.HasNext() {
		line, err := r.NextLine()
		out = append(out, line...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func endsWithLineFeed(line []byte) bool {
	if len(line) == 0 {
		return false
	}
	last := line[len(line)-1]
	return last == 0x04 || last == 0x0A
}

func (r *Reader) nextEntry() ([]byte, error) {
	index := r.current
	entry := r.file.Data[index]
	r.current++

	switch {
	case entry.Text != nil:
		return r.encodeText(*entry.Text), nil
	case entry.Graphic != nil:
		columns, err := decodeHex(*entry.Graphic)
		if err != nil {
			return nil, fmt.Errorf("entry %d: invalid graphic: %w", index, err)
		}
		if len(columns) > 0xFF {
			return nil, fmt.Errorf("entry %d: graphic has %d columns, at most 255 fit the length byte", index, len(columns))
		}
		return append([]byte{escape.Introducer, byte(len(columns))}, columns...), nil
	case entry.Linefeed != nil:
		if *entry.Linefeed == "hp" {
			return []byte{0x04}, nil
		}
		return []byte{0x0A}, nil
	case entry.Esc != nil:
		code, ok := escape.ByName(*entry.Esc)
		if !ok || code == escape.GraphicsMode {
			r.logger.Error("Unknown escape sequence in file", zap.String("esc", *entry.Esc), zap.Int("entry", index))
		}
		return []byte{escape.Introducer, code.Byte()}, nil
	case entry.Hex != nil:
		data, err := decodeHex(*entry.Hex)
		if err != nil {
			return nil, fmt.Errorf("entry %d: invalid hex: %w", index, err)
		}
		return data, nil
	default:
		return nil, nil
	}
}

// encodeText drops characters the charset cannot print
func (r *Reader) encodeText(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, ch := range text {
		b, err := r.cs.Encode(ch)
		if err != nil {
			r.logger.Warn("Character cannot be printed, dropped", zap.Error(err))
			continue
		}
		out = append(out, b)
	}
	return out
}

func decodeHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	return hex.DecodeString(s)
}
