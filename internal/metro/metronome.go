package metro

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// armedPhase makes the next decrement cross zero.
const armedPhase = 1.0

// Metronome is the per-sample pulse generator. It is not safe for concurrent
// use: the host must serialize control calls and Process. Publish is the one
// exception and may be called from any goroutine.
type Metronome struct {
	tempo     Tempo
	transport Transport
	phase     float64 // samples remaining until the next pulse
	offset    float64
	pulses    uint64

	bp      *Breakpoints
	pending atomic.Pointer[Breakpoints]

	log logrus.FieldLogger
}

// Status is a snapshot of the metronome state.
type Status struct {
	BPM            float64
	SampleRate     float64
	SamplesPerBeat float64
	Phase          float64
	Offset         float64
	Transport
	BreakpointCursor int
	BreakpointLen    int
	Pulses           uint64
}

// Option configures a Metronome.
type Option func(*Metronome)

// WithLogger sets the diagnostic logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Metronome) {
		m.log = l
	}
}

// WithBreakpoints installs an initial breakpoint sequence.
func WithBreakpoints(b *Breakpoints) Option {
	return func(m *Metronome) {
		m.bp = b
	}
}

// New creates a metronome at the given sample rate. A non-positive bpm is
// replaced with DefaultTempo.
func New(sampleRate, bpm float64, opts ...Option) (*Metronome, error) {
	m := &Metronome{
		phase: armedPhase,
		log:   discardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	t, autoset, err := NewTempo(bpm, sampleRate)
	if err != nil {
		return nil, err
	}
	m.tempo = t
	if autoset {
		m.log.Infof("tempo autoset to %.0f BPM", DefaultTempo)
	}
	m.log.WithField("samples", t.SamplesPerBeat()).Info("beat length in samples")
	return m, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetTempo changes the tempo. The remaining phase is stretched by
// old/new so the elapsed fraction of the current beat is kept.
func (m *Metronome) SetTempo(bpm float64) error {
	ratio, err := m.tempo.SetBPM(bpm)
	if err != nil {
		m.log.WithError(err).Error("tempo rejected")
		return err
	}
	m.phase *= ratio
	m.log.WithFields(logrus.Fields{
		"bpm":     bpm,
		"samples": m.tempo.SamplesPerBeat(),
	}).Debug("tempo changed")
	return nil
}

// SetSampleRate is called by the host when the audio graph is (re)built.
func (m *Metronome) SetSampleRate(sampleRate float64) error {
	if err := m.tempo.SetSampleRate(sampleRate); err != nil {
		m.log.WithError(err).Error("sample rate rejected")
		return err
	}
	m.log.WithField("rate", sampleRate).Info("sample rate changed")
	return nil
}

// SetOffset stores the legacy offset value. The engine does not read it.
func (m *Metronome) SetOffset(v float64) {
	m.offset = v
}

// Tempo returns the tempo state.
func (m *Metronome) Tempo() Tempo {
	return m.tempo
}

// Publish hands a freshly loaded breakpoint sequence to the metronome. It is
// installed at the start of the next Process call. Safe to call from any
// goroutine.
func (m *Metronome) Publish(b *Breakpoints) {
	m.pending.Store(b)
}

// Process renders len(out) samples. in is the modulation signal; missing
// input samples read as 0. It returns the number of pulses, muted or not,
// that occurred in the buffer. Process does not allocate or block.
func (m *Metronome) Process(in, out []float64) int {
	if b := m.pending.Swap(nil); b != nil {
		m.bp = b
	}

	n := 0
	for i := range out {
		var x float64
		if i < len(in) {
			x = in[i]
		}
		var pulse bool
		out[i], pulse = m.step(x)
		if pulse {
			n++
		}
	}
	return n
}

// step advances one sample. Mute only zeroes the output.
func (m *Metronome) step(in float64) (float64, bool) {
	if !m.transport.Paused {
		m.phase -= 1
	}
	if m.phase > 0 {
		return 0, false
	}

	// overshoot below zero carries into the next beat
	m.phase += m.tempo.SamplesPerBeat()
	if m.transport.AudioMod {
		m.phase *= in + 1
	}
	if f, ok := m.bp.Next(); ok {
		m.phase *= f
	}
	m.pulses++

	if m.transport.Muted {
		return 0, true
	}
	return 1, true
}

// Status returns a snapshot of the current state. It reflects the breakpoint
// sequence in use by Process, not one still pending.
func (m *Metronome) Status() Status {
	return Status{
		BPM:              m.tempo.BPM(),
		SampleRate:       m.tempo.SampleRate(),
		SamplesPerBeat:   m.tempo.SamplesPerBeat(),
		Phase:            m.phase,
		Offset:           m.offset,
		Transport:        m.transport,
		BreakpointCursor: m.bp.Cursor(),
		BreakpointLen:    m.bp.Len(),
		Pulses:           m.pulses,
	}
}
