package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/icco/modmetro/internal/metro"
)

const beatCells = 16

// Gradient from cyan to magenta across the beat.
var beatColors = []string{
	"#00FFFF", "#00E5FF", "#00CCFF", "#00B2FF",
	"#0099FF", "#0080FF", "#0066FF", "#1A4DFF",
	"#3333FF", "#4D1AFF", "#6600FF", "#8000FF",
	"#9900FF", "#B300FF", "#CC00FF", "#FF00FF",
}

// Brightness steps for the pulse lamp, dark to white.
var lampColors = []string{"#222222", "#444444", "#777777", "#AAAAAA", "#DDDDDD", "#FFFFFF"}

// newFlashSpring returns the spring that pulls the lamp back to dark after a
// pulse.
func newFlashSpring() harmonica.Spring {
	return harmonica.NewSpring(harmonica.FPS(fps), 8.0, 1.0)
}

// beatProgress is how far the engine is through the current beat, 0..1.
// Breakpoint factors can make the remaining phase longer than one nominal
// beat, so the result is clamped.
func beatProgress(s metro.Status) float64 {
	if s.SamplesPerBeat <= 0 {
		return 0
	}
	p := 1 - s.Phase/s.SamplesPerBeat
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func renderBeatBar(s metro.Status) string {
	running := !s.Paused
	current := int(beatProgress(s) * beatCells)
	if current >= beatCells {
		current = beatCells - 1
	}

	var bar strings.Builder
	bar.WriteString("Beat  ")
	for i := 0; i < beatCells; i++ {
		var cell string
		var cellStyle lipgloss.Style

		switch {
		case running && i == current:
			cell = " ▶ "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color(beatColors[i])).
				Bold(true)
		case running && i < current:
			cell = " █ "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(beatColors[i]))
		default:
			cell = " · "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#444444"))
		}
		bar.WriteString(cellStyle.Render(cell))
	}

	status := " Running"
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	if !running {
		status = " Paused"
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	}
	bar.WriteString(statusStyle.Render(status))

	return bar.String()
}

// renderLamp draws the pulse indicator at brightness level (0..1).
func renderLamp(level float64, beat uint64) string {
	i := int(level * float64(len(lampColors)-1))
	if i < 0 {
		i = 0
	}
	if i >= len(lampColors) {
		i = len(lampColors) - 1
	}
	lamp := lipgloss.NewStyle().Foreground(lipgloss.Color(lampColors[i])).Render("████")
	return fmt.Sprintf("Pulse %s  #%d", lamp, beat)
}
