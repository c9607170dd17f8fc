package render

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/icco/modmetro/internal/metro"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newMetronome(t *testing.T, sampleRate, bpm float64) *metro.Metronome {
	t.Helper()
	m, err := metro.New(sampleRate, bpm)
	if err != nil {
		t.Fatalf("Error creating metronome: %v", err)
	}
	return m
}

func TestParseScript(t *testing.T) {
	script := `# warm up
48000 tempo 60

0 mute 1
24000 mute 0
0 open  clicks one.txt
96000	tempo	90
`
	events, err := ParseScript(strings.NewReader(script))
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}

	want := []Event{
		{Frame: 0, Cmd: metro.Command{Op: metro.OpMute, Value: 1}},
		{Frame: 0, Cmd: metro.Command{Op: metro.OpOpen, Path: "clicks one.txt"}},
		{Frame: 24000, Cmd: metro.Command{Op: metro.OpMute, Value: 0}},
		{Frame: 48000, Cmd: metro.Command{Op: metro.OpSetTempo, Value: 60}},
		{Frame: 96000, Cmd: metro.Command{Op: metro.OpSetTempo, Value: 90}},
	}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %+v, got %+v", i, want[i], events[i])
		}
	}
}

func TestParseScriptErrors(t *testing.T) {
	for _, script := range []string{"pause", "x pause", "-1 pause", "10 jump"} {
		if _, err := ParseScript(strings.NewReader(script)); err == nil {
			t.Errorf("ParseScript(%q): expected error", script)
		}
	}
}

func TestRunPlain(t *testing.T) {
	m := newMetronome(t, 48000, 120)
	res := Run(m, nil, Options{Frames: 100000, BlockSize: 333, Log: quietLogger()})

	want := []int64{0, 24000, 48000, 72000, 96000}
	if len(res.Pulses) != len(want) {
		t.Fatalf("Expected %v, got %v", want, res.Pulses)
	}
	for i := range want {
		if res.Pulses[i] != want[i] {
			t.Errorf("pulse %d: expected %d, got %d", i, want[i], res.Pulses[i])
		}
	}
	if res.Status.Pulses != 5 {
		t.Errorf("Expected 5 pulses in status, got %d", res.Status.Pulses)
	}
}

func TestRunAppliesScriptAtExactFrame(t *testing.T) {
	m := newMetronome(t, 48000, 60)
	script := []Event{
		// 10000 samples remain of the 48000 sample beat; at 120 BPM that becomes 5000
		{Frame: 38001, Cmd: metro.Command{Op: metro.OpSetTempo, Value: 120}},
		{Frame: 60000, Cmd: metro.Command{Op: metro.OpMute, Value: 1}},
		{Frame: 70000, Cmd: metro.Command{Op: metro.OpSetTempo, Value: -4}},
	}
	res := Run(m, nil, Options{Frames: 100000, BlockSize: 4096, Script: script, Log: quietLogger()})

	want := []int64{0, 43000}
	if len(res.Pulses) != len(want) {
		t.Fatalf("Expected %v, got %v", want, res.Pulses)
	}
	for i := range want {
		if res.Pulses[i] != want[i] {
			t.Errorf("pulse %d: expected %d, got %d", i, want[i], res.Pulses[i])
		}
	}
	if res.Rejected != 1 {
		t.Errorf("Expected 1 rejected command, got %d", res.Rejected)
	}
	if res.Status.BPM != 120 || !res.Status.Muted {
		t.Errorf("Unexpected final status %+v", res.Status)
	}
	// 67000 and 91000 were muted but still counted
	if res.Status.Pulses != 4 {
		t.Errorf("Expected 4 pulses counted, got %d", res.Status.Pulses)
	}
}

func TestRunLoadsBreakpointsFromScript(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bp.txt"), []byte("0.5\n2.0\n"), 0600); err != nil {
		t.Fatalf("Error writing test file: %v", err)
	}

	m := newMetronome(t, 48000, 120)
	loader := metro.NewLoader(m, metro.WithSearchPath(dir), metro.WithLoaderLogger(quietLogger()))
	script := []Event{
		{Frame: 0, Cmd: metro.Command{Op: metro.OpOpen, Path: "bp.txt"}},
		{Frame: 0, Cmd: metro.Command{Op: metro.OpOpen}},
	}
	res := Run(m, loader, Options{Frames: 90000, Script: script, Log: quietLogger()})

	want := []int64{0, 12000, 60000, 84000}
	if len(res.Pulses) != len(want) {
		t.Fatalf("Expected %v, got %v", want, res.Pulses)
	}
	for i := range want {
		if res.Pulses[i] != want[i] {
			t.Errorf("pulse %d: expected %d, got %d", i, want[i], res.Pulses[i])
		}
	}
	if res.Rejected != 1 {
		t.Errorf("Expected the prompt request to be rejected offline, got %d rejections", res.Rejected)
	}
}

type halfSource struct{}

func (halfSource) Fill(buf []float64) {
	for i := range buf {
		buf[i] = -0.5
	}
}

func TestRunWithModulation(t *testing.T) {
	m := newMetronome(t, 48000, 120)
	m.SetAudioModulation(true)
	res := Run(m, nil, Options{Frames: 30000, Mod: halfSource{}, Log: quietLogger()})

	want := []int64{0, 12000, 24000}
	if len(res.Pulses) != len(want) {
		t.Fatalf("Expected %v, got %v", want, res.Pulses)
	}
}

func TestClickTrackTicks(t *testing.T) {
	c := ClickTrack{SampleRate: 48000, BPM: 120, Channel: 9, Note: 37}
	tests := []struct {
		frame int64
		want  uint32
	}{
		{0, 0},
		{24000, 960},
		{12000, 480},
		{36000, 1440},
	}
	for _, tt := range tests {
		if got := c.Tick(tt.frame); got != tt.want {
			t.Errorf("Tick(%d) = %d, want %d", tt.frame, got, tt.want)
		}
	}
}

func TestWriteSMFRoundTrip(t *testing.T) {
	c := ClickTrack{SampleRate: 48000, BPM: 120, Channel: 9, Note: 37}
	pulses := []int64{0, 12000, 60000, 60001}

	var buf bytes.Buffer
	if err := c.WriteSMF(&buf, pulses); err != nil {
		t.Fatalf("WriteSMF: %v", err)
	}

	rd, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Error reading MIDI back: %v", err)
	}
	if tc := rd.TempoChanges(); len(tc) == 0 || tc[0].BPM != 120 {
		t.Errorf("Expected tempo 120, got %v", tc)
	}
	if len(rd.Tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(rd.Tracks))
	}

	var ticks []uint32
	var abs uint32
	for _, ev := range rd.Tracks[1] {
		abs += ev.Delta
		var ch, key, vel uint8
		if ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0 {
			if ch != 9 || key != 37 {
				t.Errorf("Unexpected note ch=%d key=%d", ch, key)
			}
			ticks = append(ticks, abs)
		}
	}
	want := []uint32{0, 480, 2400, 2400}
	if len(ticks) != len(want) {
		t.Fatalf("Expected note ticks %v, got %v", want, ticks)
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Errorf("note %d: expected tick %d, got %d", i, want[i], ticks[i])
		}
	}
}

func TestWriteSMFRejectsBadTiming(t *testing.T) {
	c := ClickTrack{SampleRate: 0, BPM: 120}
	if err := c.WriteSMF(io.Discard, []int64{0}); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}
