package metro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Op identifies a control command.
type Op int

const (
	OpSetTempo Op = iota
	OpSetOffset
	OpOpen
	OpPause
	OpArm
	OpResume
	OpMute
	OpToggleAudioMod
)

// ErrUnknownCommand is returned by ParseCommand for an unrecognised verb.
var ErrUnknownCommand = errors.New("unknown command")

var opNames = map[Op]string{
	OpSetTempo:       "tempo",
	OpSetOffset:      "offset",
	OpOpen:           "open",
	OpPause:          "pause",
	OpArm:            "arm",
	OpResume:         "resume",
	OpMute:           "mute",
	OpToggleAudioMod: "audiomod",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Command is one control message. Value carries the float argument of tempo,
// offset and mute; Path carries the file of open, where "" means "ask the user".
type Command struct {
	Op    Op
	Value float64
	Path  string
}

func (c Command) String() string {
	switch c.Op {
	case OpSetTempo, OpSetOffset, OpMute:
		return fmt.Sprintf("%s %g", c.Op, c.Value)
	case OpOpen:
		if c.Path == "" {
			return c.Op.String()
		}
		return fmt.Sprintf("%s %s", c.Op, c.Path)
	default:
		return c.Op.String()
	}
}

// ParseCommand parses the textual form of a command, e.g. "tempo 90",
// "open clicks.txt", "mute 1" or "arm".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "tempo", "set-tempo":
		v, err := floatArg(verb, args)
		return Command{Op: OpSetTempo, Value: v}, err
	case "offset", "set-offset":
		v, err := floatArg(verb, args)
		return Command{Op: OpSetOffset, Value: v}, err
	case "mute":
		v, err := floatArg(verb, args)
		return Command{Op: OpMute, Value: v}, err
	case "open", "open-breakpoint-file":
		// the remainder of the line is the path so names may contain spaces
		path := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		return Command{Op: OpOpen, Path: path}, nil
	case "pause":
		return Command{Op: OpPause}, nil
	case "arm":
		return Command{Op: OpArm}, nil
	case "resume":
		return Command{Op: OpResume}, nil
	case "audiomod", "toggle-audiomod":
		return Command{Op: OpToggleAudioMod}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, verb)
}

func floatArg(verb string, args []string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s: want 1 argument, got %d", verb, len(args))
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", verb, err)
	}
	return v, nil
}

// BreakpointRequester queues a breakpoint load off the audio path.
type BreakpointRequester interface {
	Request(name string) error
}

// Controller dispatches control commands to a metronome. Like the metronome,
// it relies on the host to keep Apply and Process from running concurrently.
type Controller struct {
	m      *Metronome
	loader BreakpointRequester
	log    logrus.FieldLogger
}

// NewController creates a controller. loader may be nil, in which case open
// commands fail.
func NewController(m *Metronome, loader BreakpointRequester, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = discardLogger()
	}
	return &Controller{m: m, loader: loader, log: log}
}

// Apply executes cmd. Errors are reported to the log and returned; the
// metronome keeps its previous state.
func (c *Controller) Apply(cmd Command) error {
	switch cmd.Op {
	case OpSetTempo:
		return c.m.SetTempo(cmd.Value)
	case OpSetOffset:
		c.m.SetOffset(cmd.Value)
	case OpOpen:
		if c.loader == nil {
			err := errors.New("no breakpoint loader")
			c.log.WithError(err).Error("open rejected")
			return err
		}
		if err := c.loader.Request(cmd.Path); err != nil {
			c.log.WithError(err).WithField("file", cmd.Path).Error("open rejected")
			return err
		}
	case OpPause:
		c.m.Pause()
	case OpArm:
		c.m.Arm()
	case OpResume:
		c.m.Resume()
	case OpMute:
		// fractional values below 1 do not mute
		c.m.Mute(math.Trunc(cmd.Value) != 0)
	case OpToggleAudioMod:
		on := c.m.ToggleAudioModulation()
		c.log.WithField("enabled", on).Debug("audio modulation")
	default:
		err := fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Op)
		c.log.WithError(err).Error("command rejected")
		return err
	}
	return nil
}
