// Package render runs a metronome offline, applying frame-stamped control
// commands, and exports the resulting pulses.
package render

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/icco/modmetro/internal/metro"
)

const defaultBlockSize = 512

// Event is a control command applied when rendering reaches Frame.
type Event struct {
	Frame int64
	Cmd   metro.Command
}

// Source produces the modulation signal.
type Source interface {
	Fill(buf []float64)
}

// Options controls a render.
type Options struct {
	Frames    int64
	BlockSize int
	Script    []Event
	Mod       Source
	Log       logrus.FieldLogger
}

// Result holds the rendered pulses.
type Result struct {
	Pulses   []int64 // frames with an audible pulse
	Rejected int     // script commands that failed
	Status   metro.Status
}

// ParseScript reads lines of the form "<frame> <command>". Blank lines and
// lines starting with # are skipped. Events are returned ordered by frame,
// keeping file order for equal frames.
func ParseScript(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sep := strings.IndexFunc(line, unicode.IsSpace)
		if sep < 0 {
			return nil, fmt.Errorf("line %d: missing command", lineNo)
		}
		frameStr, rest := line[:sep], line[sep:]
		frame, err := strconv.ParseInt(frameStr, 10, 64)
		if err != nil || frame < 0 {
			return nil, fmt.Errorf("line %d: invalid frame %q", lineNo, frameStr)
		}
		cmd, err := metro.ParseCommand(rest)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, Event{Frame: frame, Cmd: cmd})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Frame < events[j].Frame
	})
	return events, nil
}

// syncLoader loads breakpoint files in place; offline there is no audio
// thread to protect.
type syncLoader struct {
	l *metro.Loader
}

func (s syncLoader) Request(name string) error {
	if name == "" {
		return metro.ErrNoPrompt
	}
	return s.l.Load(name)
}

// Run renders opts.Frames frames of m. Script commands are applied exactly at
// their frame; open commands load through loader, which may be nil.
func Run(m *metro.Metronome, loader *metro.Loader, opts Options) Result {
	block := opts.BlockSize
	if block <= 0 {
		block = defaultBlockSize
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var req metro.BreakpointRequester
	if loader != nil {
		req = syncLoader{l: loader}
	}
	ctrl := metro.NewController(m, req, log)

	in := make([]float64, block)
	out := make([]float64, block)
	var res Result
	script := opts.Script

	for frame := int64(0); frame < opts.Frames; {
		for len(script) > 0 && script[0].Frame <= frame {
			if err := ctrl.Apply(script[0].Cmd); err != nil {
				res.Rejected++
			}
			script = script[1:]
		}

		n := int64(block)
		if remaining := opts.Frames - frame; remaining < n {
			n = remaining
		}
		// stop the block at the next scripted event
		if len(script) > 0 && script[0].Frame-frame < n {
			n = script[0].Frame - frame
		}

		bin, bout := in[:n], out[:n]
		if opts.Mod != nil {
			opts.Mod.Fill(bin)
		} else {
			clear(bin)
		}
		if m.Process(bin, bout) > 0 {
			for i, v := range bout {
				if v > 0 {
					res.Pulses = append(res.Pulses, frame+int64(i))
				}
			}
		}
		frame += n
	}

	res.Status = m.Status()
	return res
}
