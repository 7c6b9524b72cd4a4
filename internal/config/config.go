// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Limits and defaults for the acoustic link.
const (
	MinDeviceID   = -1    // -1 selects the system default device
	MinSampleRate = 8000  // Hz
	MaxSampleRate = 96000 // Hz

	DefaultSampleRate       = 44100
	DefaultMarkFreq         = 1200.0 // Hz, bit value 0
	DefaultSpaceFreq        = 1800.0 // Hz, bit value 1
	DefaultPreambleFreq     = 2400.0 // Hz, frame sync tone
	DefaultBitDuration      = 0.1    // seconds per data tone
	DefaultPreambleDuration = 0.5    // seconds of sync tone
	DefaultMinToneDuration  = 0.05   // shortest tone worth classifying
	DefaultFreqTolerance    = 150.0  // Hz, classification half-width
	DefaultMinSignalPower   = 0.005  // RMS noise floor gate

	DefaultListenChunkSeconds = 3.0 // per-recording block while waiting
	MaxListenChunkSeconds     = 5.0
)

// FSK is the immutable parameter set for the modem. Both ends of the link
// must agree on every field or frames will not decode.
type FSK struct {
	SampleRate       int     `yaml:"sample_rate"`
	MarkFreq         float64 `yaml:"mark_freq"`
	SpaceFreq        float64 `yaml:"space_freq"`
	PreambleFreq     float64 `yaml:"preamble_freq"`
	BitDuration      float64 `yaml:"bit_duration"`      // seconds
	PreambleDuration float64 `yaml:"preamble_duration"` // seconds
	MinToneDuration  float64 `yaml:"min_tone_duration"` // seconds
	FreqTolerance    float64 `yaml:"frequency_tolerance"`
	MinSignalPower   float64 `yaml:"min_signal_power"`
}

// AudioConfig holds device selection and capture settings.
type AudioConfig struct {
	InputDevice        int     `yaml:"input_device"`         // PortAudio index, -1 for default
	OutputDevice       int     `yaml:"output_device"`        // PortAudio index, -1 for default
	ListenChunkSeconds float64 `yaml:"listen_chunk_seconds"` // recording block length while listening
	DumpDir            string  `yaml:"dump_dir,omitempty"`   // write captured chunks as WAV when set
}

// MonitorConfig holds settings for the WebSocket link monitor.
type MonitorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // listen address, e.g. ":8080"
}

// Config is the root application configuration, loaded from YAML.
type Config struct {
	Debug    bool          `yaml:"debug"`
	LogLevel string        `yaml:"log_level"`
	Audio    AudioConfig   `yaml:"audio"`
	FSK      FSK           `yaml:"fsk"`
	Monitor  MonitorConfig `yaml:"monitor"`
}

// DefaultFSK returns the modem parameters both rigs ship with.
func DefaultFSK() FSK {
	return FSK{
		SampleRate:       DefaultSampleRate,
		MarkFreq:         DefaultMarkFreq,
		SpaceFreq:        DefaultSpaceFreq,
		PreambleFreq:     DefaultPreambleFreq,
		BitDuration:      DefaultBitDuration,
		PreambleDuration: DefaultPreambleDuration,
		MinToneDuration:  DefaultMinToneDuration,
		FreqTolerance:    DefaultFreqTolerance,
		MinSignalPower:   DefaultMinSignalPower,
	}
}

// Load reads configuration from the YAML file at path. An empty path falls
// back to "config.yaml" in the working directory, and if that is absent the
// built-in defaults apply. Environment overrides are applied after the file,
// then the result is validated.
func Load(path string) (*Config, error) {
	cfg := Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:        MinDeviceID,
			OutputDevice:       MinDeviceID,
			ListenChunkSeconds: DefaultListenChunkSeconds,
		},
		FSK: DefaultFSK(),
		Monitor: MonitorConfig{
			Enabled: false,
			Addr:    ":8080",
		},
	}

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		} else {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return &cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for values the modem cannot run with.
func (c *Config) Validate() error {
	f := &c.FSK
	if f.SampleRate < MinSampleRate || f.SampleRate > MaxSampleRate {
		return fmt.Errorf("fsk.sample_rate %d outside [%d, %d]", f.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if f.MarkFreq <= 0 || f.SpaceFreq <= 0 || f.PreambleFreq <= 0 {
		return fmt.Errorf("fsk tone frequencies must be positive")
	}
	if f.BitDuration <= 0 || f.PreambleDuration <= 0 {
		return fmt.Errorf("fsk tone durations must be positive")
	}
	if f.MinSignalPower < 0 {
		return fmt.Errorf("fsk.min_signal_power must be non-negative")
	}

	// The tolerance must stay under half the minimum tone spacing or a
	// received tone could classify as two different symbols.
	if half := f.minToneSpacing() / 2; f.FreqTolerance >= half {
		return fmt.Errorf("fsk.frequency_tolerance %.1f must be below half the minimum tone spacing (%.1f)",
			f.FreqTolerance, half)
	}

	nyquist := float64(f.SampleRate) / 2
	for _, freq := range []float64{f.MarkFreq, f.SpaceFreq, f.PreambleFreq} {
		if freq >= nyquist {
			return fmt.Errorf("fsk tone %.0f Hz at or above Nyquist (%.0f Hz)", freq, nyquist)
		}
	}

	if c.Audio.ListenChunkSeconds <= 0 || c.Audio.ListenChunkSeconds > MaxListenChunkSeconds {
		return fmt.Errorf("audio.listen_chunk_seconds %.1f outside (0, %.1f]",
			c.Audio.ListenChunkSeconds, MaxListenChunkSeconds)
	}

	if c.Monitor.Enabled && c.Monitor.Addr == "" {
		return fmt.Errorf("monitor.addr must be set when the monitor is enabled")
	}

	return nil
}

// minToneSpacing returns the smallest gap between any two of the three
// tone frequencies.
func (f *FSK) minToneSpacing() float64 {
	freqs := []float64{f.MarkFreq, f.SpaceFreq, f.PreambleFreq}
	min := 0.0
	for i := 0; i < len(freqs); i++ {
		for j := i + 1; j < len(freqs); j++ {
			gap := freqs[i] - freqs[j]
			if gap < 0 {
				gap = -gap
			}
			if min == 0 || gap < min {
				min = gap
			}
		}
	}
	return min
}

func (c *Config) applyEnvOverrides() {
	// AIRGAP_DEBUG
	if val, ok := os.LookupEnv("AIRGAP_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
		}
	}
	// AIRGAP_LOG_LEVEL
	if val, ok := os.LookupEnv("AIRGAP_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	// AIRGAP_INPUT_DEVICE / AIRGAP_OUTPUT_DEVICE
	if val, ok := os.LookupEnv("AIRGAP_INPUT_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = iVal
		}
	}
	if val, ok := os.LookupEnv("AIRGAP_OUTPUT_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			c.Audio.OutputDevice = iVal
		}
	}
	// AIRGAP_MONITOR_ADDR implies the monitor is wanted.
	if val, ok := os.LookupEnv("AIRGAP_MONITOR_ADDR"); ok {
		c.Monitor.Enabled = true
		c.Monitor.Addr = val
	}
}
