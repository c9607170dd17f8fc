package render

import (
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarterNote = 960 // Standard MIDI resolution
	noteTicks           = ticksPerQuarterNote / 16
	clickVelocity       = 100
)

// ClickTrack describes how pulses are written to a Standard MIDI File.
type ClickTrack struct {
	SampleRate float64
	BPM        float64 // tempo written to the file; pulse times are exact regardless
	Channel    uint8
	Note       uint8
}

// Tick converts a frame position to a MIDI tick at the track tempo.
func (c ClickTrack) Tick(frame int64) uint32 {
	beats := float64(frame) / c.SampleRate * c.BPM / 60
	return uint32(math.Round(beats * ticksPerQuarterNote))
}

// Build creates an SMF with a tempo track and one note per pulse.
func (c ClickTrack) Build(pulses []int64) (*smf.SMF, error) {
	if c.SampleRate <= 0 || c.BPM <= 0 {
		return nil, fmt.Errorf("invalid click track timing: sr=%f bpm=%f", c.SampleRate, c.BPM)
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarterNote)

	// Track 0: Tempo track
	var track0 smf.Track
	track0.Add(0, smf.MetaMeter(4, 4))
	track0.Add(0, smf.MetaTempo(c.BPM))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return nil, fmt.Errorf("error adding tempo track: %w", err)
	}

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName("modmetro"))
	var lastTick uint32
	for i, p := range pulses {
		pos := c.Tick(p)
		length := uint32(noteTicks)
		if i+1 < len(pulses) {
			if gap := c.Tick(pulses[i+1]) - pos; gap < length {
				length = gap
			}
		}

		track.Add(pos-lastTick, midi.NoteOn(c.Channel, c.Note, clickVelocity))
		track.Add(length, midi.NoteOff(c.Channel, c.Note))
		lastTick = pos + length
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return nil, fmt.Errorf("error adding click track: %w", err)
	}
	return sm, nil
}

// WriteSMF writes the click track for pulses to w.
func (c ClickTrack) WriteSMF(w io.Writer, pulses []int64) error {
	sm, err := c.Build(pulses)
	if err != nil {
		return err
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}
