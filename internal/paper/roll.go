// internal/paper/roll.go
package paper

import (
	"strings"
	"sync"
)

// Roll keeps the most recent printed lines in memory. It is safe for
// concurrent use.
type Roll struct {
	mu    sync.RWMutex
	lines []Line
	limit int
	next  int
}

// NewRoll creates a roll holding at most limit lines, 0 means unlimited
func NewRoll(limit int) *Roll {
	return &Roll{limit: limit}
}

// PrintFullLine implements LineSink
func (r *Roll) PrintFullLine(line Line) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	line.Number = r.next
	r.lines = append(r.lines, line)
	if r.limit > 0 && len(r.lines) > r.limit {
		r.lines = append(r.lines[:0:0], r.lines[len(r.lines)-r.limit:]...)
	}
}

// Lines returns a copy of the kept lines, oldest first
func (r *Roll) Lines() []Line {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

// Since returns the lines numbered after n
func (r *Roll) Since(n int) []Line {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Line
	for _, line := range r.lines {
		if line.Number > n {
			out = append(out, line)
		}
	}
	return out
}

// Len returns the number of kept lines
func (r *Roll) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lines)
}

// Text returns the printed text, one line per printed line
func (r *Roll) Text() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, line := range r.lines {
		sb.WriteString(line.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Reset tears the paper off
func (r *Roll) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}
