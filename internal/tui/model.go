// Package tui is the terminal control surface for a running metronome.
package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/harmonica"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/icco/modmetro/internal/audio"
	"github.com/icco/modmetro/internal/metro"
)

const fps = 30

// Engine is what the UI controls.
type Engine interface {
	Apply(cmd metro.Command) error
	Status() metro.Status
}

// PromptMsg asks the UI to let the user pick a breakpoint file.
type PromptMsg struct{}

// LoadedMsg reports a finished breakpoint load.
type LoadedMsg metro.LoadResult

type pulseMsg audio.Pulse

type frameMsg time.Time

type viewMode int

const (
	controlMode viewMode = iota
	browserMode
	commandMode
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	flagOnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	dirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAFF")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))
)

// Model is the bubbletea model for the metronome.
type Model struct {
	engine Engine
	pulses <-chan audio.Pulse

	mode    viewMode
	browser fileBrowser
	input   textinput.Model
	help    help.Model

	status   metro.Status
	lastFile string
	beat     uint64
	message  string
	isError  bool

	spring   harmonica.Spring
	flash    float64
	flashVel float64

	width  int
	height int
}

// New creates the model. pulses may be nil; dir is where the file browser
// starts, the working directory when empty.
func New(engine Engine, pulses <-chan audio.Pulse, dir string) Model {
	input := textinput.New()
	input.Prompt = ": "
	input.Placeholder = "tempo 90"

	return Model{
		engine:  engine,
		pulses:  pulses,
		browser: newFileBrowser(dir),
		input:   input,
		help:    help.New(),
		status:  engine.Status(),
		spring:  newFlashSpring(),
	}
}

// SetLastFile records the breakpoint file loaded at startup so reload works.
func (m *Model) SetLastFile(path string) {
	m.lastFile = path
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(frame(), waitForPulse(m.pulses))
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func waitForPulse(pulses <-chan audio.Pulse) tea.Cmd {
	if pulses == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-pulses
		if !ok {
			return nil
		}
		return pulseMsg(p)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.browser.height = msg.Height
		return m, nil

	case frameMsg:
		m.status = m.engine.Status()
		m.flash, m.flashVel = m.spring.Update(m.flash, m.flashVel, 0)
		if m.flash < 0 {
			m.flash = 0
		}
		return m, frame()

	case pulseMsg:
		m.beat = msg.Beat
		m.flash, m.flashVel = 1, 0
		return m, waitForPulse(m.pulses)

	case PromptMsg:
		m.mode = browserMode
		m.browser.message = ""
		m.browser.loadFiles()
		return m, nil

	case LoadedMsg:
		if msg.Err != nil {
			m.setError(msg.Err)
			return m, nil
		}
		m.lastFile = msg.Path
		m.setInfo(fmt.Sprintf("Loaded %d breakpoints from %s", msg.Count, filepath.Base(msg.Path)))
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case browserMode:
			return m.updateBrowser(msg)
		case commandMode:
			return m.updateCommand(msg)
		default:
			return m.updateControl(msg)
		}
	}

	return m, nil
}

func (m Model) updateControl(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.TempoUp):
		m.apply(metro.Command{Op: metro.OpSetTempo, Value: m.status.BPM + 1})
	case key.Matches(msg, keys.TempoDown):
		m.apply(metro.Command{Op: metro.OpSetTempo, Value: m.status.BPM - 1})
	case key.Matches(msg, keys.TempoUpBig):
		m.apply(metro.Command{Op: metro.OpSetTempo, Value: m.status.BPM + 10})
	case key.Matches(msg, keys.TempoDownBig):
		m.apply(metro.Command{Op: metro.OpSetTempo, Value: m.status.BPM - 10})
	case key.Matches(msg, keys.Pause):
		if m.status.Paused {
			m.apply(metro.Command{Op: metro.OpResume})
		} else {
			m.apply(metro.Command{Op: metro.OpPause})
		}
	case key.Matches(msg, keys.Arm):
		m.apply(metro.Command{Op: metro.OpArm})
	case key.Matches(msg, keys.Mute):
		v := 1.0
		if m.status.Muted {
			v = 0
		}
		m.apply(metro.Command{Op: metro.OpMute, Value: v})
	case key.Matches(msg, keys.AudioMod):
		m.apply(metro.Command{Op: metro.OpToggleAudioMod})
	case key.Matches(msg, keys.Open):
		// no path: the loader asks us back with a PromptMsg
		m.apply(metro.Command{Op: metro.OpOpen})
	case key.Matches(msg, keys.Reload):
		if m.lastFile == "" {
			m.setError(errors.New("no breakpoint file loaded"))
			break
		}
		m.apply(metro.Command{Op: metro.OpOpen, Path: m.lastFile})
	case key.Matches(msg, keys.Command):
		m.mode = commandMode
		m.input.Reset()
		return m, m.input.Focus()
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chosen, done := m.browser.update(msg)
	if !done {
		return m, nil
	}
	m.mode = controlMode
	if chosen == "" {
		m.setInfo("Open cancelled")
		return m, nil
	}
	m.apply(metro.Command{Op: metro.OpOpen, Path: chosen})
	return m, nil
}

func (m Model) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = controlMode
		m.input.Blur()
		return m, nil
	case "enter":
		m.mode = controlMode
		m.input.Blur()
		line := strings.TrimSpace(m.input.Value())
		if line == "" {
			return m, nil
		}
		cmd, err := metro.ParseCommand(line)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.apply(cmd)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) apply(cmd metro.Command) {
	if err := m.engine.Apply(cmd); err != nil {
		m.setError(err)
	} else {
		m.setInfo(cmd.String())
	}
	m.status = m.engine.Status()
}

func (m *Model) setError(err error) {
	m.message = err.Error()
	m.isError = true
}

func (m *Model) setInfo(s string) {
	m.message = s
	m.isError = false
}

func (m Model) View() string {
	if m.mode == browserMode {
		return m.browser.view()
	}

	s := m.status
	var b strings.Builder

	b.WriteString(titleStyle.Render("MODMETRO - Modulating Metronome") + "\n\n")
	b.WriteString(subtitleStyle.Render("Tempo: ") +
		fmt.Sprintf("%.2f BPM (%.0f samples/beat @ %.0f Hz)\n", s.BPM, s.SamplesPerBeat, s.SampleRate))

	file := "none"
	if m.lastFile != "" {
		file = filepath.Base(m.lastFile)
	}
	b.WriteString(subtitleStyle.Render("Breakpoints: ") +
		fmt.Sprintf("%d/%d (%s)\n", s.BreakpointCursor, s.BreakpointLen, file))
	b.WriteString(subtitleStyle.Render("Flags: ") +
		flag("paused", s.Paused) + " " + flag("muted", s.Muted) + " " + flag("audio mod", s.AudioMod) + "\n\n")

	b.WriteString(renderBeatBar(s) + "\n")
	b.WriteString(renderLamp(m.flash, m.beat) + "\n\n")

	if m.mode == commandMode {
		b.WriteString(m.input.View() + "\n")
	}
	if m.message != "" {
		if m.isError {
			b.WriteString(errorStyle.Render(m.message) + "\n")
		} else {
			b.WriteString(infoStyle.Render(m.message) + "\n")
		}
	}

	b.WriteString("\n" + m.help.View(keys))
	return b.String()
}

func flag(name string, on bool) string {
	if on {
		return flagOnStyle.Render("[" + name + "]")
	}
	return helpStyle.Render(" " + name + " ")
}
