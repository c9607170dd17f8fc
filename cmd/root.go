package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/icco/modmetro/internal/config"
)

var (
	configFile string
	logLevel   string
	sampleRate float64
	tempo      float64
	bpFile     string
)

var rootCmd = &cobra.Command{
	Use:   "modmetro",
	Short: "A sample-accurate modulating metronome",
	Long: `modmetro is a metronome whose beat length can be modulated by an audio-rate
signal and by a sequence of breakpoint factors read from a text file.

It can play through the system audio output with a terminal control surface,
mirror its pulses to a MIDI port, or render offline to a Standard MIDI File.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML preset file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", 0, "Sample rate in Hz")
	rootCmd.PersistentFlags().Float64VarP(&tempo, "tempo", "t", 0, "Tempo in BPM")
	rootCmd.PersistentFlags().StringVarP(&bpFile, "breakpoints", "b", "", "Breakpoint file to load at startup")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges the environment, the preset file and command line flags,
// in that order of precedence from lowest to highest.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Load()
	if configFile != "" {
		var err error
		if cfg, err = config.LoadFile(configFile, cfg); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("sample-rate") {
		cfg.SampleRate = sampleRate
	}
	if flags.Changed("tempo") {
		cfg.Tempo = tempo
	}
	if flags.Changed("breakpoints") {
		cfg.Breakpoints = bpFile
	}
	return cfg, cfg.Validate()
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(lvl)
	return log, nil
}
