// Package metro implements a sample-accurate modulating metronome: a
// countdown oscillator that emits one impulse per beat, whose beat length can
// be stretched by tempo changes, a loaded breakpoint sequence and an
// audio-rate modulation input.
package metro

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Breakpoints is a loaded sequence of tempo factors with a forward-only read
// cursor. Each factor scales the length of one beat, in order, and the
// sequence is consumed once. A nil *Breakpoints behaves like an empty one.
type Breakpoints struct {
	factors []float64
	cursor  int
}

// NewBreakpoints creates a sequence from the given factors with the cursor at 0.
func NewBreakpoints(factors []float64) *Breakpoints {
	f := make([]float64, len(factors))
	copy(f, factors)
	return &Breakpoints{factors: f}
}

// ParseBreakpoints reads one factor per line. Lines that do not start with a
// number parse to 0.
func ParseBreakpoints(r io.Reader) (*Breakpoints, error) {
	var factors []float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		factors = append(factors, parseLeadingFloat(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading breakpoints: %w", err)
	}
	return &Breakpoints{factors: factors}, nil
}

// ReadBreakpointFile opens path and parses it with ParseBreakpoints.
func ReadBreakpointFile(path string) (*Breakpoints, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("can't open breakpoint file: %w", err)
	}
	defer f.Close()

	bp, err := ParseBreakpoints(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bp, nil
}

// Next returns the factor under the cursor and advances it. Once the sequence
// is exhausted it returns (1, false) until a new sequence is loaded.
func (b *Breakpoints) Next() (float64, bool) {
	if b == nil || b.cursor >= len(b.factors) {
		return 1, false
	}
	f := b.factors[b.cursor]
	b.cursor++
	return f, true
}

// Len returns the number of factors in the sequence.
func (b *Breakpoints) Len() int {
	if b == nil {
		return 0
	}
	return len(b.factors)
}

// Cursor returns the index of the next factor to be consumed.
func (b *Breakpoints) Cursor() int {
	if b == nil {
		return 0
	}
	return b.cursor
}

// Factors returns a copy of the loaded factors.
func (b *Breakpoints) Factors() []float64 {
	if b == nil {
		return nil
	}
	out := make([]float64, len(b.factors))
	copy(out, b.factors)
	return out
}

// parseLeadingFloat converts the longest numeric prefix of s, after leading
// whitespace, and yields 0 when there is none.
func parseLeadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\r\n\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	// exponent only counts when it has digits
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		if exp < len(s) && isDigit(s[exp]) {
			for exp < len(s) && isDigit(s[exp]) {
				exp++
			}
			end = exp
		}
	}
	// range errors still yield ±Inf or 0
	v, _ := strconv.ParseFloat(s[:end], 64)
	return v
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
