// ABOUTME: Null audio output that discards rendered audio
// ABOUTME: Used for headless runs and tests of the callback lifecycle
package output

import (
	"fmt"
	"log"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
)

// Null renders on a goroutine and throws the audio away
type Null struct {
	realtime bool
}

// NewNull creates a null backend. A realtime backend paces callbacks at
// the stream's buffer period.
func NewNull(realtime bool) FrameBackend {
	return &Null{realtime: realtime}
}

// Name returns the backend name
func (n *Null) Name() string { return "null" }

// OpenStream creates a clocked stream with a discarding sink
func (n *Null) OpenStream(cfg audio.StreamConfig, cb Callback) (Stream, error) {
	if cb == nil {
		return nil, fmt.Errorf("nil callback")
	}
	return n.OpenFrameStream(cfg, cb.counted())
}

// OpenFrameStream is OpenStream for a callback that reports rendered frames
func (n *Null) OpenFrameStream(cfg audio.StreamConfig, cb FrameCallback) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, fmt.Errorf("nil callback")
	}

	s := newClockedStream(n.Name(), cfg, cb, discard{}, n.realtime)
	log.Printf("Stream %s opened: %dHz, %d channels, %d frames/buffer (null, realtime=%v)",
		s.ID(), cfg.SampleRate, cfg.Channels, cfg.FramesPerBuffer, n.realtime)
	return s, nil
}

type discard struct{}

func (discard) write(buf []float32, frames int) error { return nil }
func (discard) close() error                          { return nil }
