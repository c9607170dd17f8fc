package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/icco/modmetro/internal/audio"
	"github.com/icco/modmetro/internal/config"
	"github.com/icco/modmetro/internal/metro"
	"github.com/icco/modmetro/internal/render"
)

var (
	renderFrames  int64
	renderSeconds float64
	scriptFile    string
	outFile       string
	renderLFO     bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the metronome offline to a MIDI click track",
	Long: `Render the metronome offline for a number of frames and write every audible
pulse as a note in a Standard MIDI File.

A script file can change the metronome while rendering. Each line holds a frame
number and a command, for example:

  # frame  command
  0        open swing.txt
  96000    tempo 90
  192000   mute 1

Example:
  modmetro render --seconds 30 --script changes.txt --out click.mid
`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().Int64Var(&renderFrames, "frames", 0, "Number of frames to render")
	renderCmd.Flags().Float64Var(&renderSeconds, "seconds", 10, "Seconds to render when --frames is not set")
	renderCmd.Flags().StringVar(&scriptFile, "script", "", "Script of frame-stamped commands")
	renderCmd.Flags().StringVarP(&outFile, "out", "o", "click.mid", "Output MIDI file")
	renderCmd.Flags().BoolVar(&renderLFO, "lfo", false, "Feed the modulation LFO into the audio-rate input")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	m, err := metro.New(cfg.SampleRate, cfg.Tempo, metro.WithLogger(log))
	if err != nil {
		return err
	}
	loader := metro.NewLoader(m, metro.WithSearchPath(searchPath()...), metro.WithLoaderLogger(log))
	if _, err := loadInitialBreakpoints(cfg, m, loader); err != nil {
		return err
	}

	opts := render.Options{
		Frames: frameCount(cfg),
		Log:    log,
	}
	if renderLFO {
		opts.Mod = audio.NewLFO(cfg.SampleRate, cfg.ModRate, cfg.ModDepth)
	}
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			return fmt.Errorf("error opening script: %w", err)
		}
		opts.Script, err = render.ParseScript(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("error parsing script %s: %w", scriptFile, err)
		}
	}

	startBPM := m.Tempo().BPM()
	res := render.Run(m, loader, opts)

	track := render.ClickTrack{
		SampleRate: cfg.SampleRate,
		BPM:        startBPM,
		Channel:    uint8(cfg.MIDIChannel), //nolint:gosec // range checked by Validate
		Note:       uint8(cfg.MIDINote),    //nolint:gosec // range checked by Validate
	}
	if err := writeClickTrack(outFile, track, res.Pulses); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"frames":   opts.Frames,
		"pulses":   len(res.Pulses),
		"rejected": res.Rejected,
		"tempo":    res.Status.BPM,
		"file":     outFile,
	}).Info("render complete")
	return nil
}

func frameCount(cfg config.Config) int64 {
	if renderFrames > 0 {
		return renderFrames
	}
	return int64(math.Round(renderSeconds * cfg.SampleRate))
}

func writeClickTrack(path string, track render.ClickTrack, pulses []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating MIDI file: %w", err)
	}
	if err := track.WriteSMF(f, pulses); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
