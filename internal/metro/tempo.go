package metro

import (
	"errors"
	"fmt"
	"math"
)

// DefaultTempo is used when a metronome is created without a positive tempo.
const DefaultTempo = 120.0

var (
	// ErrInvalidTempo is returned for a tempo that is not finite and strictly positive.
	ErrInvalidTempo = errors.New("illegal tempo")
	// ErrInvalidSampleRate is returned for a sample rate that is not finite and strictly positive.
	ErrInvalidSampleRate = errors.New("illegal sample rate")
)

// Tempo holds the beat tempo and sample rate and the beat length derived
// from them.
type Tempo struct {
	bpm            float64
	sampleRate     float64
	samplesPerBeat float64
}

// NewTempo creates a Tempo, substituting DefaultTempo when bpm is not a
// finite positive number.
// The returned bool reports whether the default was substituted.
func NewTempo(bpm, sampleRate float64) (Tempo, bool, error) {
	if !finitePositive(sampleRate) {
		return Tempo{}, false, fmt.Errorf("%w: %f", ErrInvalidSampleRate, sampleRate)
	}
	autoset := false
	if !finitePositive(bpm) {
		bpm = DefaultTempo
		autoset = true
	}
	t := Tempo{bpm: bpm, sampleRate: sampleRate}
	t.update()
	return t, autoset, nil
}

// finitePositive rejects NaN and both infinities along with v <= 0.
func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// SamplesPerBeat returns 60·sampleRate/bpm.
func SamplesPerBeat(bpm, sampleRate float64) float64 {
	return 60 * sampleRate / bpm
}

// BPM returns the tempo in beats per minute.
func (t Tempo) BPM() float64 { return t.bpm }

// SampleRate returns the sample rate in Hz.
func (t Tempo) SampleRate() float64 { return t.sampleRate }

// SamplesPerBeat returns the current beat length in samples.
func (t Tempo) SamplesPerBeat() float64 { return t.samplesPerBeat }

// SetBPM changes the tempo and returns old/new, the factor by which a beat
// in flight has to be stretched to keep its elapsed fraction. On error the
// tempo is unchanged.
func (t *Tempo) SetBPM(bpm float64) (float64, error) {
	if !finitePositive(bpm) {
		return 1, fmt.Errorf("%w: %f", ErrInvalidTempo, bpm)
	}
	ratio := t.bpm / bpm
	t.bpm = bpm
	t.update()
	return ratio, nil
}

// SetSampleRate changes the sample rate and recomputes the beat length.
func (t *Tempo) SetSampleRate(sampleRate float64) error {
	if !finitePositive(sampleRate) {
		return fmt.Errorf("%w: %f", ErrInvalidSampleRate, sampleRate)
	}
	t.sampleRate = sampleRate
	t.update()
	return nil
}

func (t *Tempo) update() {
	t.samplesPerBeat = SamplesPerBeat(t.bpm, t.sampleRate)
}
