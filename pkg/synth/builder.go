// ABOUTME: Builder that moves a source and its voices into a Renderer
// ABOUTME: Validates the voice layout once, before any real-time activity
package synth

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/wavetone/pkg/oscillator"
	"github.com/Resonate-Protocol/wavetone/pkg/source"
)

var (
	// ErrConsumed is returned by Build on a builder that already built
	ErrConsumed = errors.New("builder already consumed")

	// ErrInvalidConfig is returned when the collected parts do not fit together
	ErrInvalidConfig = errors.New("invalid renderer configuration")
)

// Builder collects the parts of a Renderer on the control thread. Build
// hands them over and clears the builder, so the control thread is left
// without references into the renderer's state.
type Builder struct {
	src        source.Source
	voices     []oscillator.Voice
	layout     Layout
	channels   int
	frameLimit int64
	consumed   bool
}

// NewBuilder starts a renderer for the given channel count and layout
func NewBuilder(channels int, layout Layout) *Builder {
	return &Builder{channels: channels, layout: layout}
}

// Source sets the sample source
func (b *Builder) Source(src source.Source) *Builder {
	b.src = src
	return b
}

// Voice appends a voice. Shared layouts take one voice; per-channel
// layouts take one per channel, in channel order.
func (b *Builder) Voice(v oscillator.Voice) *Builder {
	b.voices = append(b.voices, v)
	return b
}

// FrameLimit makes the renderer return Stop once frames frames have been
// rendered. Zero means no limit.
func (b *Builder) FrameLimit(frames int64) *Builder {
	b.frameLimit = frames
	return b
}

// Build validates the collected parts and moves them into a Renderer
func (b *Builder) Build() (*Renderer, error) {
	if b.consumed {
		return nil, ErrConsumed
	}
	if err := b.validate(); err != nil {
		return nil, err
	}

	voices := make([]oscillator.Voice, len(b.voices))
	copy(voices, b.voices)

	r := &Renderer{
		src:        b.src,
		voices:     voices,
		layout:     b.layout,
		channels:   b.channels,
		frameLimit: b.frameLimit,
	}

	*b = Builder{consumed: true}
	return r, nil
}

func (b *Builder) validate() error {
	if b.channels < 1 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidConfig, b.channels)
	}
	if b.src == nil || b.src.Len() == 0 {
		return fmt.Errorf("%w: missing sample source", ErrInvalidConfig)
	}
	if b.frameLimit < 0 {
		return fmt.Errorf("%w: negative frame limit %d", ErrInvalidConfig, b.frameLimit)
	}

	switch b.layout {
	case Shared:
		if len(b.voices) != 1 {
			return fmt.Errorf("%w: shared layout needs 1 voice, got %d", ErrInvalidConfig, len(b.voices))
		}
	case PerChannel:
		if len(b.voices) != b.channels {
			return fmt.Errorf("%w: per-channel layout needs %d voices, got %d", ErrInvalidConfig, b.channels, len(b.voices))
		}
	default:
		return fmt.Errorf("%w: unknown layout %d", ErrInvalidConfig, int(b.layout))
	}

	for i, v := range b.voices {
		if v == nil {
			return fmt.Errorf("%w: voice %d is nil", ErrInvalidConfig, i)
		}
		if x, ok := v.(*oscillator.Index); ok && x.Bound() != b.src.Len() {
			return fmt.Errorf("%w: voice %d wraps at %d but source has %d samples", ErrInvalidConfig, i, x.Bound(), b.src.Len())
		}
	}
	return nil
}
