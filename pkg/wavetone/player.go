// ABOUTME: High-level Player API for wavetable playback
// ABOUTME: Builds source, voices and renderer, then drives one output stream
package wavetone

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/Resonate-Protocol/wavetone/pkg/audio/output"
	"github.com/Resonate-Protocol/wavetone/pkg/oscillator"
	"github.com/Resonate-Protocol/wavetone/pkg/source"
	"github.com/Resonate-Protocol/wavetone/pkg/synth"
	"github.com/Resonate-Protocol/wavetone/pkg/wavetable"
)

// ErrAlreadyPlayed is returned by Play on a player that has already played
var ErrAlreadyPlayed = errors.New("player already played")

// finishedPollInterval is how often Play checks whether the stream finished
const finishedPollInterval = 10 * time.Millisecond

// PlayerConfig holds player configuration
type PlayerConfig struct {
	// Stream is the channel configuration (default: 2ch, 44100Hz, 64 frames)
	Stream audio.StreamConfig

	// Backend is the audio output (default: malgo)
	Backend output.Backend

	// Layout selects one shared voice or one voice per channel
	Layout synth.Layout

	// TableSize is the sine table length when Points is empty (default: 200)
	TableSize int

	// Points replaces the sine table with an external waveform
	Points []source.Point

	// Frequency is the shared voice frequency in Hz. For per-channel
	// layouts a non-zero Frequency derives the base step.
	Frequency float64

	// Step is the per-channel base index step (default: 1)
	Step int

	// Multipliers scale Step per channel (default: 1, 3, 5, ...)
	Multipliers []int

	// PhaseOffset is the shared voice's starting phase in [0, 1)
	PhaseOffset float64

	// FrameLimit stops the stream from inside the callback after this
	// many frames. Zero means no limit.
	FrameLimit int64

	// OnStateChange is called when playback state changes
	OnStateChange func(PlayerState)
}

// PlayerState describes the current state
type PlayerState struct {
	State      string // "idle", "playing", "stopped"
	Backend    string
	StreamID   string
	SampleRate int
	Channels   int
	Layout     string
	SourceLen  int
}

// Player plays one stream built from its configuration
type Player struct {
	config   PlayerConfig
	renderer *synth.Renderer

	mu     sync.Mutex
	state  PlayerState
	played bool
}

// NewPlayer creates a player with the given configuration. All validation
// happens here so Play never starts a stream from a bad configuration.
func NewPlayer(config PlayerConfig) (*Player, error) {
	// Set defaults
	if config.Stream == (audio.StreamConfig{}) {
		config.Stream = audio.DefaultStreamConfig()
	}
	if config.Backend == nil {
		config.Backend = output.NewMalgo()
	}
	if config.TableSize == 0 {
		config.TableSize = 200
	}
	if config.Step == 0 && config.Frequency == 0 {
		config.Step = 1
	}

	if err := config.Stream.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stream config: %w", err)
	}

	src, err := newSource(config)
	if err != nil {
		return nil, err
	}

	// One source cycle per Len frames, so every point is played once
	if config.Layout == synth.Shared && config.Frequency == 0 {
		config.Frequency = float64(config.Stream.SampleRate) / float64(src.Len())
	}
	if config.Multipliers == nil {
		config.Multipliers = make([]int, config.Stream.Channels)
		for i := range config.Multipliers {
			config.Multipliers[i] = 2*i + 1
		}
	}

	builder := synth.NewBuilder(config.Stream.Channels, config.Layout).
		Source(src).
		FrameLimit(config.FrameLimit)

	switch config.Layout {
	case synth.Shared:
		phase, err := oscillator.NewPhase(config.Frequency, float64(config.Stream.SampleRate))
		if err != nil {
			return nil, fmt.Errorf("failed to create voice: %w", err)
		}
		builder.Voice(phase.WithOffset(config.PhaseOffset))

	case synth.PerChannel:
		if len(config.Multipliers) != config.Stream.Channels {
			return nil, fmt.Errorf("expected %d channel multipliers, got %d", config.Stream.Channels, len(config.Multipliers))
		}
		step := config.Step
		if config.Frequency != 0 {
			step, err = oscillator.IndexStep(config.Frequency, float64(config.Stream.SampleRate), src.Len())
			if err != nil {
				return nil, fmt.Errorf("failed to derive step: %w", err)
			}
		}
		for ch, m := range config.Multipliers {
			voice, err := oscillator.NewIndex(src.Len(), step, m)
			if err != nil {
				return nil, fmt.Errorf("failed to create voice for channel %d: %w", ch, err)
			}
			builder.Voice(voice)
		}
	}

	renderer, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build renderer: %w", err)
	}

	return &Player{
		config:   config,
		renderer: renderer,
		state: PlayerState{
			State:      "idle",
			Backend:    config.Backend.Name(),
			SampleRate: config.Stream.SampleRate,
			Channels:   config.Stream.Channels,
			Layout:     config.Layout.String(),
			SourceLen:  src.Len(),
		},
	}, nil
}

func newSource(config PlayerConfig) (source.Source, error) {
	if len(config.Points) > 0 {
		src, err := source.NewExternal(config.Points)
		if err != nil {
			return nil, fmt.Errorf("failed to load external waveform: %w", err)
		}
		return src, nil
	}

	table, err := wavetable.Build(config.TableSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build wavetable: %w", err)
	}
	src, err := source.NewSynthesized(table)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap wavetable: %w", err)
	}
	return src, nil
}

// Play opens the stream, starts it, waits and then stops and closes it.
// It waits for duration, for the renderer to finish (frame limit or
// Stop), or for ctx to be cancelled, whichever comes first. A zero
// duration waits without a deadline.
func (p *Player) Play(ctx context.Context, duration time.Duration) error {
	p.mu.Lock()
	if p.played {
		p.mu.Unlock()
		return ErrAlreadyPlayed
	}
	p.played = true
	p.mu.Unlock()

	var stream output.Stream
	var err error
	if fb, ok := p.config.Backend.(output.FrameBackend); ok {
		stream, err = fb.OpenFrameStream(p.config.Stream, p.renderer.Render)
	} else {
		stream, err = p.config.Backend.OpenStream(p.config.Stream, p.renderer.Fill)
	}
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		closeErr := stream.Close()
		return errors.Join(fmt.Errorf("failed to start stream: %w", err), closeErr)
	}

	p.setState(func(s *PlayerState) {
		s.State = "playing"
		s.StreamID = stream.ID()
	})
	log.Printf("Playing %s layout for %v on %s (stream %s)", p.config.Layout, duration, p.config.Backend.Name(), stream.ID())

	p.wait(ctx, stream, duration)

	stopErr := stream.Stop()
	closeErr := stream.Close()

	stats := p.renderer.Stats()
	log.Printf("Playback finished: %d buffers, %d frames, %d faults", stats.Buffers, stats.Frames, stats.Faults)

	p.setState(func(s *PlayerState) { s.State = "stopped" })

	return errors.Join(stopErr, closeErr)
}

func (p *Player) wait(ctx context.Context, stream output.Stream, duration time.Duration) {
	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(finishedPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Playback cancelled: %v", ctx.Err())
			return
		case <-deadline:
			return
		case <-ticker.C:
			if stream.Finished() {
				return
			}
		}
	}
}

// Stop asks the renderer to end the stream. Safe from any goroutine.
func (p *Player) Stop() {
	p.renderer.RequestStop()
}

// Stats returns the renderer's counters
func (p *Player) Stats() synth.Stats {
	return p.renderer.Stats()
}

// Status returns current player state
func (p *Player) Status() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Config returns the configuration with defaults applied
func (p *Player) Config() PlayerConfig {
	return p.config
}

func (p *Player) setState(update func(*PlayerState)) {
	p.mu.Lock()
	update(&p.state)
	state := p.state
	p.mu.Unlock()

	if p.config.OnStateChange != nil {
		p.config.OnStateChange(state)
	}
}
