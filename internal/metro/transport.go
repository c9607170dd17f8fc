package metro

// Transport gates the phase accumulator. The flags are independent and any
// combination is legal.
type Transport struct {
	Paused   bool
	Muted    bool
	AudioMod bool
}

// Arm pauses the metronome and resets the phase so that the first sample
// processed after Resume is a pulse.
func (m *Metronome) Arm() {
	m.transport.Paused = true
	m.phase = armedPhase
}

// Pause stops the countdown without touching the phase.
func (m *Metronome) Pause() {
	m.transport.Paused = true
}

// Resume restarts the countdown.
func (m *Metronome) Resume() {
	m.transport.Paused = false
}

// Mute silences the output. Phase and breakpoint bookkeeping continue.
func (m *Metronome) Mute(on bool) {
	m.transport.Muted = on
}

// SetAudioModulation enables or disables scaling of each new beat by the
// input signal.
func (m *Metronome) SetAudioModulation(on bool) {
	m.transport.AudioMod = on
}

// ToggleAudioModulation flips the audio modulation flag and returns the new
// value.
func (m *Metronome) ToggleAudioModulation() bool {
	m.transport.AudioMod = !m.transport.AudioMod
	return m.transport.AudioMod
}

// Transport returns the current transport flags.
func (m *Metronome) Transport() Transport {
	return m.transport
}
