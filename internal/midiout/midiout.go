// Package midiout mirrors metronome pulses as MIDI notes on an output port.
package midiout

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/icco/modmetro/internal/audio"
)

const (
	DefaultChannel  = 9  // General MIDI percussion
	DefaultNote     = 37 // side stick
	DefaultVelocity = 100

	allNotesOff = 123
)

// Ports returns the names of the available MIDI outputs. A driver must be
// registered by the caller.
func Ports() []string {
	var names []string
	for _, out := range midi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}

// Clicker sends a short note for every pulse it receives.
type Clicker struct {
	send     func(msg midi.Message) error
	port     drivers.Out
	channel  uint8
	note     uint8
	velocity uint8
	log      logrus.FieldLogger
}

// New creates a Clicker around an existing send function.
func New(send func(msg midi.Message) error, channel, note uint8, log logrus.FieldLogger) *Clicker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Clicker{
		send:     send,
		channel:  channel & 0x0F,
		note:     note & 0x7F,
		velocity: DefaultVelocity,
		log:      log,
	}
}

// Open connects to the named output port.
func Open(name string, channel, note uint8, log logrus.FieldLogger) (*Clicker, error) {
	out, err := midi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("can't find MIDI output %q: %w", name, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", out.String(), err)
	}
	c := New(send, channel, note, log)
	c.port = out
	return c, nil
}

// Run forwards pulses until ctx is cancelled or pulses is closed.
func (c *Clicker) Run(ctx context.Context, pulses <-chan audio.Pulse) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-pulses:
			if !ok {
				return
			}
			if err := c.Click(); err != nil {
				c.log.WithError(err).WithField("beat", p.Beat).Warn("MIDI click failed")
			}
		}
	}
}

// Click sends one note on/off pair.
func (c *Clicker) Click() error {
	if err := c.send(midi.NoteOn(c.channel, c.note, c.velocity)); err != nil {
		return fmt.Errorf("note on: %w", err)
	}
	if err := c.send(midi.NoteOff(c.channel, c.note)); err != nil {
		return fmt.Errorf("note off: %w", err)
	}
	return nil
}

// Close silences the channel and closes the port, if any.
func (c *Clicker) Close() error {
	_ = c.send(midi.ControlChange(c.channel, allNotesOff, 0))
	if c.port != nil {
		if err := c.port.Close(); err != nil {
			return fmt.Errorf("error closing MIDI port: %w", err)
		}
	}
	return nil
}
