// Package config loads modmetro settings from the environment and from YAML
// preset files.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration.
type Config struct {
	// Engine
	SampleRate  float64   `yaml:"sample_rate"`
	Tempo       float64   `yaml:"tempo"`       // BPM
	Breakpoints string    `yaml:"breakpoints"` // file loaded at startup
	Factors     []float64 `yaml:"factors"`     // inline sequence, used when Breakpoints is empty

	// MIDI mirror
	MIDIPort    string `yaml:"midi_port"` // empty disables MIDI output
	MIDIChannel int    `yaml:"midi_channel"`
	MIDINote    int    `yaml:"midi_note"`

	// Audible click
	ClickFreq float64 `yaml:"click_freq"` // Hz
	ClickMS   int     `yaml:"click_ms"`

	// Modulation LFO
	ModRate  float64 `yaml:"mod_rate"` // Hz
	ModDepth float64 `yaml:"mod_depth"`

	LogLevel string `yaml:"log_level"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		SampleRate:  envFloat("MODMETRO_SAMPLE_RATE", 44100),
		Tempo:       envFloat("MODMETRO_TEMPO", 120),
		Breakpoints: envStr("MODMETRO_BREAKPOINTS", ""),

		MIDIPort:    envStr("MODMETRO_MIDI_PORT", ""),
		MIDIChannel: envInt("MODMETRO_MIDI_CHANNEL", 9),
		MIDINote:    envInt("MODMETRO_MIDI_NOTE", 37),

		ClickFreq: envFloat("MODMETRO_CLICK_FREQ", 1000),
		ClickMS:   envInt("MODMETRO_CLICK_MS", 15),

		ModRate:  envFloat("MODMETRO_MOD_RATE", 0.25),
		ModDepth: envFloat("MODMETRO_MOD_DEPTH", 0.5),

		LogLevel: envStr("MODMETRO_LOG_LEVEL", "info"),
	}
}

// LoadFile overlays the YAML preset at path on base. Keys missing from the
// file keep their value from base.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("error reading config file: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports settings the engine or MIDI layer cannot use. A
// non-positive tempo is not an error; the engine substitutes its default.
func (c Config) Validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 1) {
		return fmt.Errorf("sample rate must be finite and positive, got %g", c.SampleRate)
	}
	if c.MIDIChannel < 0 || c.MIDIChannel > 15 {
		return fmt.Errorf("MIDI channel must be 0-15, got %d", c.MIDIChannel)
	}
	if c.MIDINote < 0 || c.MIDINote > 127 {
		return fmt.Errorf("MIDI note must be 0-127, got %d", c.MIDINote)
	}
	if c.ClickMS < 0 {
		return fmt.Errorf("click length must not be negative, got %d", c.ClickMS)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
