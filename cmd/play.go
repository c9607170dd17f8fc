package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"github.com/icco/modmetro/internal/audio"
	"github.com/icco/modmetro/internal/config"
	"github.com/icco/modmetro/internal/metro"
	"github.com/icco/modmetro/internal/midiout"
	"github.com/icco/modmetro/internal/tui"
)

var (
	noTUI   bool
	logFile string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the metronome through the system audio output",
	Long: `Play the metronome through the system audio output with a terminal control
surface. Pulses are mirrored to a MIDI output when a port is configured.

Example:
  modmetro play --tempo 96 --breakpoints swing.txt
  MODMETRO_MIDI_PORT="IAC Driver Bus 1" modmetro play
`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Run without the terminal UI until interrupted")
	playCmd.Flags().StringVar(&logFile, "log-file", filepath.Join(os.TempDir(), "modmetro.log"), "Log file used while the terminal UI is running")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logOut := os.Stderr
	if !noTUI {
		// keep log lines off the alt screen
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	log, err := newLogger(cfg.LogLevel, logOut)
	if err != nil {
		return err
	}

	m, err := metro.New(cfg.SampleRate, cfg.Tempo, metro.WithLogger(log))
	if err != nil {
		return err
	}

	var program *tea.Program
	loader := metro.NewLoader(m,
		metro.WithSearchPath(searchPath()...),
		metro.WithLoaderLogger(log),
		metro.WithPrompt(func() {
			if program != nil {
				program.Send(tui.PromptMsg{})
			}
		}),
		metro.WithNotify(func(r metro.LoadResult) {
			if program != nil {
				program.Send(tui.LoadedMsg(r))
			}
		}),
	)
	lastFile, err := loadInitialBreakpoints(cfg, m, loader)
	if err != nil {
		return err
	}

	ctrl := metro.NewController(m, loader, log)
	host := audio.NewHost(m, ctrl,
		audio.WithModulation(audio.NewLFO(cfg.SampleRate, cfg.ModRate, cfg.ModDepth)),
		audio.WithClick(audio.NewClick(cfg.SampleRate, cfg.ClickFreq, time.Duration(cfg.ClickMS)*time.Millisecond)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	uiPulses := host.Subscribe(16)
	defer midi.CloseDriver()
	if cfg.MIDIPort != "" {
		clicker, err := midiout.Open(cfg.MIDIPort, uint8(cfg.MIDIChannel), uint8(cfg.MIDINote), log) //nolint:gosec // range checked by Validate
		if err != nil {
			return err
		}
		defer clicker.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			clicker.Run(ctx, host.Subscribe(64))
		}()
		log.WithField("port", cfg.MIDIPort).Info("mirroring pulses to MIDI")
	}
	// runs before the port, driver and log file above are closed
	defer func() {
		cancel()
		wg.Wait()
	}()

	if !noTUI {
		model := tui.New(host, uiPulses, "")
		model.SetLastFile(lastFile)
		program = tea.NewProgram(model, tea.WithAltScreen())
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		loader.Run(ctx)
	}()

	player, err := audio.NewPlayer(host, int(cfg.SampleRate))
	if err != nil {
		return err
	}
	defer player.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	if noTUI {
		return runHeadless(ctx, log, uiPulses, sig)
	}

	go func() {
		<-sig
		program.Send(tea.Quit())
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func runHeadless(ctx context.Context, log logrus.FieldLogger, pulses <-chan audio.Pulse, sig <-chan os.Signal) error {
	log.Info("playing, press Ctrl+C to stop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sig:
			return nil
		case p := <-pulses:
			log.WithField("frame", p.Frame).Debugf("beat %d", p.Beat)
		}
	}
}

// loadInitialBreakpoints publishes the configured sequence before playback
// starts and returns the file it came from, if any.
func loadInitialBreakpoints(cfg config.Config, m *metro.Metronome, loader *metro.Loader) (string, error) {
	switch {
	case cfg.Breakpoints != "":
		if err := loader.Load(cfg.Breakpoints); err != nil {
			return "", fmt.Errorf("error loading breakpoints: %w", err)
		}
		return cfg.Breakpoints, nil
	case len(cfg.Factors) > 0:
		m.Publish(metro.NewBreakpoints(cfg.Factors))
	}
	return "", nil
}

// searchPath lists the directories relative breakpoint names are resolved
// against: the preset's directory, then the working directory.
func searchPath() []string {
	var dirs []string
	if configFile != "" {
		dirs = append(dirs, filepath.Dir(configFile))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return dirs
}
