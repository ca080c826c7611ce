// ABOUTME: Process configuration for the wavetone player
// ABOUTME: Defaults, optional .env file and WAVETONE_* environment overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/Resonate-Protocol/wavetone/pkg/audio/output"
	"github.com/Resonate-Protocol/wavetone/pkg/synth"
	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvChannels        = "WAVETONE_CHANNELS"
	EnvSampleRate      = "WAVETONE_SAMPLE_RATE"
	EnvFramesPerBuffer = "WAVETONE_FRAMES_PER_BUFFER"
	EnvSeconds         = "WAVETONE_SECONDS"
	EnvFrequency       = "WAVETONE_FREQUENCY"
	EnvTableSize       = "WAVETONE_TABLE_SIZE"
	EnvLeftStep        = "WAVETONE_LEFT_STEP"
	EnvRightMultiplier = "WAVETONE_RIGHT_MULTIPLIER"
	EnvLayout          = "WAVETONE_LAYOUT"
	EnvWaveform        = "WAVETONE_WAVEFORM"
	EnvBackend         = "WAVETONE_BACKEND"
	EnvOutputFile      = "WAVETONE_OUT"
	EnvRealtime        = "WAVETONE_REALTIME"
	EnvNoTUI           = "WAVETONE_NO_TUI"
	EnvLogFile         = "WAVETONE_LOG_FILE"
)

// Config holds everything the player CLI needs
type Config struct {
	Channels        int
	SampleRate      int
	FramesPerBuffer int
	Duration        time.Duration
	Frequency       float64
	TableSize       int
	LeftStep        int
	RightMultiplier int
	Layout          string
	Waveform        string
	Backend         string
	OutputFile      string
	Realtime        bool
	NoTUI           bool
	LogFile         string
}

// Default returns the stock configuration: a stereo 44.1kHz stream of
// 64-frame buffers playing a 200-sample table for 5 seconds, the right
// channel stepping three times as fast as the left
func Default() Config {
	return Config{
		Channels:        audio.DefaultChannels,
		SampleRate:      audio.DefaultSampleRate,
		FramesPerBuffer: audio.DefaultFramesPerBuffer,
		Duration:        5 * time.Second,
		TableSize:       200,
		LeftStep:        1,
		RightMultiplier: 3,
		Layout:          synth.PerChannel.String(),
		Backend:         "malgo",
		OutputFile:      "wavetone.wav",
		LogFile:         "wavetone.log",
	}
}

// Load starts from Default, loads envFile if it exists, then applies
// WAVETONE_* variables. Variables already set in the process environment
// win over the file.
func Load(envFile string) (Config, error) {
	cfg := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvChannels, &c.Channels},
		{EnvSampleRate, &c.SampleRate},
		{EnvFramesPerBuffer, &c.FramesPerBuffer},
		{EnvTableSize, &c.TableSize},
		{EnvLeftStep, &c.LeftStep},
		{EnvRightMultiplier, &c.RightMultiplier},
	}
	for _, v := range ints {
		if s := os.Getenv(v.key); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("%s: invalid integer %q", v.key, s)
			}
			*v.dst = n
		}
	}

	if s := os.Getenv(EnvSeconds); s != "" {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", EnvSeconds, s)
		}
		c.Duration = time.Duration(secs * float64(time.Second))
	}
	if s := os.Getenv(EnvFrequency); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", EnvFrequency, s)
		}
		c.Frequency = f
	}

	strs := []struct {
		key string
		dst *string
	}{
		{EnvLayout, &c.Layout},
		{EnvWaveform, &c.Waveform},
		{EnvBackend, &c.Backend},
		{EnvOutputFile, &c.OutputFile},
		{EnvLogFile, &c.LogFile},
	}
	for _, v := range strs {
		if s := os.Getenv(v.key); s != "" {
			*v.dst = s
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{EnvRealtime, &c.Realtime},
		{EnvNoTUI, &c.NoTUI},
	}
	for _, v := range bools {
		if s := os.Getenv(v.key); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("%s: invalid boolean %q", v.key, s)
			}
			*v.dst = b
		}
	}

	return nil
}

// Validate reports the first invalid field
func (c Config) Validate() error {
	if err := c.StreamConfig().Validate(); err != nil {
		return err
	}
	if c.Duration < 0 {
		return fmt.Errorf("invalid duration: %v", c.Duration)
	}
	if c.Frequency < 0 || c.Frequency >= float64(c.SampleRate) {
		return fmt.Errorf("invalid frequency: %v (must be in [0, %d))", c.Frequency, c.SampleRate)
	}
	if c.Waveform == "" && c.TableSize <= 0 {
		return fmt.Errorf("invalid table size: %d", c.TableSize)
	}
	if c.LeftStep <= 0 {
		return fmt.Errorf("invalid left step: %d", c.LeftStep)
	}
	if c.RightMultiplier <= 0 {
		return fmt.Errorf("invalid right multiplier: %d", c.RightMultiplier)
	}
	if _, err := c.SynthLayout(); err != nil {
		return err
	}
	if !knownBackend(c.Backend) {
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	if c.Backend == "wav" && c.OutputFile == "" {
		return fmt.Errorf("wav backend requires an output file")
	}
	return nil
}

func knownBackend(name string) bool {
	for _, n := range output.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// StreamConfig returns the stream's channel configuration
func (c Config) StreamConfig() audio.StreamConfig {
	cfg := audio.DefaultStreamConfig()
	cfg.Channels = c.Channels
	cfg.SampleRate = c.SampleRate
	cfg.FramesPerBuffer = c.FramesPerBuffer
	return cfg
}

// SynthLayout parses Layout
func (c Config) SynthLayout() (synth.Layout, error) {
	switch c.Layout {
	case synth.Shared.String():
		return synth.Shared, nil
	case synth.PerChannel.String():
		return synth.PerChannel, nil
	default:
		return 0, fmt.Errorf("unknown layout: %q (expected %q or %q)", c.Layout, synth.Shared, synth.PerChannel)
	}
}

// Multipliers returns the per-channel step multipliers. Channel 0 steps
// at 1 and every further channel adds RightMultiplier-1.
func (c Config) Multipliers() []int {
	if c.Channels <= 0 {
		return nil
	}
	m := make([]int, c.Channels)
	for i := range m {
		m[i] = 1 + i*(c.RightMultiplier-1)
	}
	return m
}

// FrameLimit converts Duration into a frame count for offline rendering
func (c Config) FrameLimit() int64 {
	return int64(c.Duration.Seconds() * float64(c.SampleRate))
}
