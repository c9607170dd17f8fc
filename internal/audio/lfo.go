package audio

import "math"

// LFO is a sine low frequency oscillator used as the modulation input.
// Its output swings between -depth and +depth.
type LFO struct {
	inc   float64
	depth float64
	phase float64
}

// NewLFO creates an oscillator at rate Hz.
func NewLFO(sampleRate, rate, depth float64) *LFO {
	return &LFO{
		inc:   rate / sampleRate,
		depth: depth,
	}
}

// Fill writes the next len(buf) samples.
func (l *LFO) Fill(buf []float64) {
	for i := range buf {
		buf[i] = l.depth * math.Sin(2*math.Pi*l.phase)
		l.phase += l.inc
		if l.phase >= 1.0 {
			l.phase -= 1.0
		}
	}
}
