package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/icco/modmetro/internal/audio"
	"github.com/icco/modmetro/internal/metro"
)

type fakeEngine struct {
	status metro.Status
	cmds   []metro.Command
	err    error
}

func (f *fakeEngine) Apply(cmd metro.Command) error {
	f.cmds = append(f.cmds, cmd)
	if f.err != nil {
		return f.err
	}
	switch cmd.Op {
	case metro.OpSetTempo:
		f.status.BPM = cmd.Value
	case metro.OpPause:
		f.status.Paused = true
	case metro.OpResume:
		f.status.Paused = false
	case metro.OpMute:
		f.status.Muted = cmd.Value != 0
	}
	return nil
}

func (f *fakeEngine) Status() metro.Status {
	return f.status
}

func (f *fakeEngine) last(t *testing.T) metro.Command {
	t.Helper()
	if len(f.cmds) == 0 {
		t.Fatal("Expected a command to be applied")
	}
	return f.cmds[len(f.cmds)-1]
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func newTestModel(t *testing.T) (Model, *fakeEngine) {
	t.Helper()
	eng := &fakeEngine{status: metro.Status{BPM: 120, SampleRate: 48000, SamplesPerBeat: 24000}}
	return New(eng, nil, t.TempDir()), eng
}

func TestControlKeys(t *testing.T) {
	m, eng := newTestModel(t)

	tests := []struct {
		key  tea.KeyMsg
		want metro.Command
	}{
		{runeKey("+"), metro.Command{Op: metro.OpSetTempo, Value: 121}},
		{runeKey("-"), metro.Command{Op: metro.OpSetTempo, Value: 120}},
		{runeKey("]"), metro.Command{Op: metro.OpSetTempo, Value: 130}},
		{runeKey("["), metro.Command{Op: metro.OpSetTempo, Value: 120}},
		{runeKey("a"), metro.Command{Op: metro.OpArm}},
		{runeKey("m"), metro.Command{Op: metro.OpMute, Value: 1}},
		{runeKey("m"), metro.Command{Op: metro.OpMute, Value: 0}},
		{runeKey("x"), metro.Command{Op: metro.OpToggleAudioMod}},
		{runeKey("o"), metro.Command{Op: metro.OpOpen}},
	}
	for _, tt := range tests {
		m = send(t, m, tt.key)
		if got := eng.last(t); got != tt.want {
			t.Errorf("key %q: expected %v, got %v", tt.key.String(), tt.want, got)
		}
	}
}

func TestPauseToggles(t *testing.T) {
	m, eng := newTestModel(t)
	space := tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

	m = send(t, m, space)
	if got := eng.last(t); got.Op != metro.OpPause {
		t.Fatalf("Expected pause, got %v", got)
	}
	m = send(t, m, space)
	if got := eng.last(t); got.Op != metro.OpResume {
		t.Errorf("Expected resume, got %v", got)
	}
	if m.status.Paused {
		t.Error("Status should be refreshed after resume")
	}
}

func TestApplyErrorShown(t *testing.T) {
	m, eng := newTestModel(t)
	eng.err = metro.ErrInvalidTempo

	m = send(t, m, runeKey("+"))
	if !m.isError {
		t.Error("Expected error state")
	}
	if !strings.Contains(m.View(), metro.ErrInvalidTempo.Error()) {
		t.Error("View should show the error")
	}
}

func TestReloadNeedsFile(t *testing.T) {
	m, eng := newTestModel(t)

	m = send(t, m, runeKey("r"))
	if len(eng.cmds) != 0 || !m.isError {
		t.Fatalf("Reload without a file should only report an error, got %v", eng.cmds)
	}

	m = send(t, m, LoadedMsg{Path: "/tmp/clicks.txt", Count: 3})
	if m.isError || !strings.Contains(m.message, "3 breakpoints") {
		t.Errorf("Unexpected message %q", m.message)
	}
	send(t, m, runeKey("r"))
	want := metro.Command{Op: metro.OpOpen, Path: "/tmp/clicks.txt"}
	if got := eng.last(t); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestLoadFailureShown(t *testing.T) {
	m, _ := newTestModel(t)
	m = send(t, m, LoadedMsg{Path: "missing.txt", Err: errors.New("can't find file")})
	if !m.isError || m.lastFile != "" {
		t.Errorf("Failed load should not become the last file: %q, %q", m.lastFile, m.message)
	}
}

func TestPromptOpensBrowser(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.bp", "notes.md", ".hidden.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("1\n"), 0600); err != nil {
			t.Fatalf("Error writing %s: %v", name, err)
		}
	}

	eng := &fakeEngine{status: metro.Status{BPM: 120}}
	m := New(eng, nil, dir)
	m = send(t, m, PromptMsg{})
	if m.mode != browserMode {
		t.Fatal("Expected browser mode after prompt")
	}

	var names []string
	for _, f := range m.browser.files {
		names = append(names, f.name)
	}
	if got := strings.Join(names, ","); got != "..,a.txt,b.bp" {
		t.Fatalf("Unexpected browser entries %q", got)
	}

	m = send(t, m, runeKey("j"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != controlMode {
		t.Error("Expected control mode after choosing a file")
	}
	want := metro.Command{Op: metro.OpOpen, Path: filepath.Join(dir, "a.txt")}
	if got := eng.last(t); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestBrowserCancel(t *testing.T) {
	m, eng := newTestModel(t)
	m = send(t, m, PromptMsg{})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != controlMode {
		t.Error("Expected control mode after cancel")
	}
	if len(eng.cmds) != 0 {
		t.Errorf("Cancel should not apply commands, got %v", eng.cmds)
	}
}

func TestCommandLine(t *testing.T) {
	m, eng := newTestModel(t)

	m = send(t, m, runeKey(":"))
	if m.mode != commandMode {
		t.Fatal("Expected command mode")
	}
	m = send(t, m, runeKey("tempo 90"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	want := metro.Command{Op: metro.OpSetTempo, Value: 90}
	if got := eng.last(t); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if m.mode != controlMode {
		t.Error("Expected control mode after enter")
	}

	m = send(t, m, runeKey(":"))
	m = send(t, m, runeKey("jump 3"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.isError {
		t.Error("Unknown command should be reported")
	}
	if len(eng.cmds) != 1 {
		t.Errorf("Unknown command should not be applied, got %v", eng.cmds)
	}
}

func TestPulseFlashDecays(t *testing.T) {
	pulses := make(chan audio.Pulse, 1)
	eng := &fakeEngine{status: metro.Status{BPM: 120, SamplesPerBeat: 24000}}
	m := New(eng, pulses, t.TempDir())

	m = send(t, m, pulseMsg(audio.Pulse{Frame: 48000, Beat: 3}))
	if m.flash != 1 || m.beat != 3 {
		t.Fatalf("Expected full flash on beat 3, got %f on %d", m.flash, m.beat)
	}

	prev := m.flash
	for i := 0; i < fps; i++ {
		m = send(t, m, frameMsg(time.Now()))
		if m.flash > prev {
			t.Fatalf("Flash grew on frame %d: %f > %f", i, m.flash, prev)
		}
		prev = m.flash
	}
	if m.flash > 0.1 {
		t.Errorf("Expected flash to fade within a second, got %f", m.flash)
	}
}

func TestWaitForPulse(t *testing.T) {
	if waitForPulse(nil) != nil {
		t.Error("Expected no command without a pulse channel")
	}

	pulses := make(chan audio.Pulse, 1)
	pulses <- audio.Pulse{Beat: 7}
	msg := waitForPulse(pulses)()
	if p, ok := msg.(pulseMsg); !ok || p.Beat != 7 {
		t.Errorf("Expected pulse 7, got %v", msg)
	}

	close(pulses)
	if msg := waitForPulse(pulses)(); msg != nil {
		t.Errorf("Expected nil after close, got %v", msg)
	}
}

func TestBeatProgress(t *testing.T) {
	tests := []struct {
		phase, spb float64
		want       float64
	}{
		{24000, 24000, 0},
		{12000, 24000, 0.5},
		{0, 24000, 1},
		{48000, 24000, 0},
		{-5, 24000, 1},
		{10, 0, 0},
	}
	for _, tt := range tests {
		got := beatProgress(metro.Status{Phase: tt.phase, SamplesPerBeat: tt.spb})
		if got != tt.want {
			t.Errorf("beatProgress(%f, %f) = %f, want %f", tt.phase, tt.spb, got, tt.want)
		}
	}
}

func TestViewShowsStatus(t *testing.T) {
	eng := &fakeEngine{status: metro.Status{
		BPM:              90,
		SampleRate:       44100,
		SamplesPerBeat:   29400,
		Transport:        metro.Transport{Muted: true},
		BreakpointCursor: 2,
		BreakpointLen:    5,
	}}
	m := New(eng, nil, t.TempDir())
	m.SetLastFile("/data/swing.txt")
	v := m.View()

	for _, want := range []string{"90.00 BPM", "29400 samples/beat", "2/5 (swing.txt)", "muted", "Running"} {
		if !strings.Contains(v, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(runeKey("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}
