package audio

import (
	"math"
	"time"
)

const (
	DefaultClickFreq   = 1000.0
	DefaultClickLength = 15 * time.Millisecond
)

// Click is a short exponentially decaying sine burst started on each pulse.
type Click struct {
	inc       float64 // phase increment per sample
	length    int
	decay     float64
	phase     float64
	envelope  float64
	remaining int
}

// NewClick creates a click of the given frequency and length at sampleRate.
func NewClick(sampleRate, freq float64, length time.Duration) *Click {
	n := int(length.Seconds() * sampleRate)
	if n < 1 {
		n = 1
	}
	return &Click{
		inc:    freq / sampleRate,
		length: n,
		// envelope falls to 1/1000 over the click
		decay: math.Pow(0.001, 1/float64(n)),
	}
}

// Trigger restarts the click.
func (c *Click) Trigger() {
	c.phase = 0
	c.envelope = 1
	c.remaining = c.length
}

// Next returns the next sample, 0 once the click has finished.
func (c *Click) Next() float64 {
	if c.remaining == 0 {
		return 0
	}
	s := math.Sin(2*math.Pi*c.phase) * c.envelope

	c.phase += c.inc
	if c.phase >= 1.0 {
		c.phase -= 1.0
	}
	c.envelope *= c.decay
	c.remaining--
	return s
}

// Active reports whether the click is still sounding.
func (c *Click) Active() bool {
	return c.remaining > 0
}
