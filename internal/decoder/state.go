// internal/decoder/state.go
package decoder

// Mode is the decoder's position in the protocol
type Mode int

const (
	ModeText Mode = iota
	ModeEscape
	ModeGraphics
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeEscape:
		return "escape"
	case ModeGraphics:
		return "graphics"
	default:
		return "unknown"
	}
}

// State is everything a decoding session accumulates between bytes. It is
// owned by a single session and must not be shared.
type State struct {
	Mode       Mode
	Remaining  int
	DoubleWide bool
	Underline  bool
	AltCharset bool
	Column     int
	Text       []rune
	Page       Bitmap
}

// NewState returns the power-on state
func NewState() *State {
	return &State{Mode: ModeText}
}

// reset clears the flags, graphics counter and pending text. The page and
// the column are left alone, matching the printer's behavior.
func (s *State) reset() {
	s.DoubleWide = false
	s.Underline = false
	s.AltCharset = false
	s.Remaining = 0
	s.Text = s.Text[:0]
}

// Flags is a read-only view of the formatting state
type Flags struct {
	Mode       string `json:"mode"`
	Remaining  int    `json:"graphics_remaining"`
	DoubleWide bool   `json:"double_wide"`
	Underline  bool   `json:"underline"`
	AltCharset bool   `json:"alt_charset"`
	Column     int    `json:"column"`
	Pending    string `json:"pending_text"`
}

// Flags snapshots the formatting state
func (s *State) Flags() Flags {
	return Flags{
		Mode:       s.Mode.String(),
		Remaining:  s.Remaining,
		DoubleWide: s.DoubleWide,
		Underline:  s.Underline,
		AltCharset: s.AltCharset,
		Column:     s.Column,
		Pending:    string(s.Text),
	}
}
