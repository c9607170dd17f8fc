// Package audio hosts a metronome on a real-time audio stream: it renders the
// engine buffer by buffer, turns pulses into audible clicks and reports them
// to subscribers.
package audio

import (
	"sync"

	"github.com/icco/modmetro/internal/metro"
)

const (
	channelCount = 2 // stereo
	bitDepth     = 2 // 16-bit
	frameBytes   = channelCount * bitDepth

	defaultBufferFrames = 4096
	defaultVolume       = 0.8
)

// Pulse reports an audible beat.
type Pulse struct {
	Frame int64  // absolute output frame
	Beat  uint64 // 1-based count of audible pulses
}

// Source produces the modulation signal read by the metronome.
type Source interface {
	Fill(buf []float64)
}

// Host owns a metronome and serializes control calls against rendering, so
// the metronome never sees both at once.
type Host struct {
	mu     sync.Mutex
	m      *metro.Metronome
	ctrl   *metro.Controller
	mod    Source
	click  *Click
	volume float64

	in, out []float64
	frame   int64
	beats   uint64
	subs    []chan Pulse
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithModulation sets the modulation input. Without one the input is silent.
func WithModulation(s Source) HostOption {
	return func(h *Host) {
		h.mod = s
	}
}

// WithClick replaces the default click sound.
func WithClick(c *Click) HostOption {
	return func(h *Host) {
		h.click = c
	}
}

// WithVolume sets the click volume (0.0 - 1.0).
func WithVolume(v float64) HostOption {
	return func(h *Host) {
		h.volume = clamp(v, 0, 1)
	}
}

// NewHost creates a host for m. Commands applied through the host go to ctrl.
func NewHost(m *metro.Metronome, ctrl *metro.Controller, opts ...HostOption) *Host {
	h := &Host{
		m:      m,
		ctrl:   ctrl,
		volume: defaultVolume,
		in:     make([]float64, defaultBufferFrames),
		out:    make([]float64, defaultBufferFrames),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.click == nil {
		h.click = NewClick(m.Tempo().SampleRate(), DefaultClickFreq, DefaultClickLength)
	}
	return h
}

// Apply runs a control command between audio buffers.
func (h *Host) Apply(cmd metro.Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctrl.Apply(cmd)
}

// Status returns the metronome state between audio buffers.
func (h *Host) Status() metro.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.Status()
}

// Subscribe returns a channel receiving audible pulses. Pulses are dropped
// when the channel is full so the audio path never waits on a subscriber.
// Subscribe before playback starts.
func (h *Host) Subscribe(buffer int) <-chan Pulse {
	ch := make(chan Pulse, buffer)
	h.mu.Lock()
	h.subs = append(h.subs, ch)
	h.mu.Unlock()
	return ch
}

// Read renders interleaved stereo signed 16-bit little-endian samples. It
// implements io.Reader for the output stream.
func (h *Host) Read(buf []byte) (int, error) {
	// control calls hold mu only for an in-memory update or snapshot;
	// file loads run on the loader goroutine
	h.mu.Lock()
	defer h.mu.Unlock()

	frames := len(buf) / frameBytes
	h.grow(frames)
	in, out := h.in[:frames], h.out[:frames]

	if h.mod != nil {
		h.mod.Fill(in)
	} else {
		clear(in)
	}
	h.m.Process(in, out)

	for i, v := range out {
		if v > 0 {
			h.beats++
			h.click.Trigger()
			h.publish(Pulse{Frame: h.frame + int64(i), Beat: h.beats})
		}

		sample := clamp(h.click.Next()*h.volume, -1, 1)
		sampleInt := int16(sample * 32767)

		idx := i * frameBytes
		buf[idx] = byte(sampleInt)
		buf[idx+1] = byte(sampleInt >> 8)
		buf[idx+2] = byte(sampleInt)
		buf[idx+3] = byte(sampleInt >> 8)
	}
	h.frame += int64(frames)

	return frames * frameBytes, nil
}

// grow only allocates when the output asks for a larger buffer than seen so far.
func (h *Host) grow(frames int) {
	if frames <= len(h.out) {
		return
	}
	h.in = make([]float64, frames)
	h.out = make([]float64, frames)
}

func (h *Host) publish(p Pulse) {
	for _, ch := range h.subs {
		select {
		case ch <- p:
		default:
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
