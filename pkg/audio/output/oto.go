// ABOUTME: Oto-based audio output implementation
// ABOUTME: Feeds the render callback to an oto player through a pull-mode io.Reader
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// oto only allows one context per process, so it is shared by every stream
var (
	otoMu         sync.Mutex
	otoCtx        *oto.Context
	otoSampleRate int
	otoChannels   int
)

// Oto opens streams through the oto library
type Oto struct{}

// NewOto creates a new Oto backend
func NewOto() Backend {
	return &Oto{}
}

// Name returns the backend name
func (o *Oto) Name() string { return "oto" }

// OpenStream creates an oto player that pulls from the callback
func (o *Oto) OpenStream(cfg audio.StreamConfig, cb Callback) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, fmt.Errorf("nil callback")
	}

	ctx, err := sharedOtoContext(cfg)
	if err != nil {
		return nil, err
	}

	s := &otoStream{
		gate:     newGate(cb.counted(), cfg.Channels),
		scratch:  make([]float32, cfg.BufferSamples()),
		channels: cfg.Channels,
	}
	s.player = ctx.NewPlayer(s)

	log.Printf("Stream %s opened: %dHz, %d channels, %d frames/buffer (oto/F32LE)",
		s.ID(), cfg.SampleRate, cfg.Channels, cfg.FramesPerBuffer)

	return s, nil
}

func sharedOtoContext(cfg audio.StreamConfig) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoSampleRate != cfg.SampleRate || otoChannels != cfg.Channels {
			return nil, fmt.Errorf("oto context already running at %dHz %dch, cannot open %dHz %dch",
				otoSampleRate, otoChannels, cfg.SampleRate, cfg.Channels)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(cfg.FramesPerBuffer) * time.Second / time.Duration(cfg.SampleRate),
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoSampleRate = cfg.SampleRate
	otoChannels = cfg.Channels
	return ctx, nil
}

type otoStream struct {
	*gate

	player   *oto.Player
	scratch  []float32
	channels int

	mu     sync.Mutex
	closed bool
}

// Read is called from oto's mixing goroutine. It renders whole frames into
// p and reports io.EOF once the callback has finished.
func (s *otoStream) Read(p []byte) (int, error) {
	frameBytes := 4 * s.channels
	frames := len(p) / frameBytes
	chunkFrames := len(s.scratch) / s.channels
	offset := 0
	finished := false

	for frames > 0 {
		n := frames
		if n > chunkFrames {
			n = chunkFrames
		}
		chunk := s.scratch[:n*s.channels]
		_, finished = s.render(chunk, n)

		for _, v := range chunk {
			binary.LittleEndian.PutUint32(p[offset:], math.Float32bits(v))
			offset += 4
		}
		frames -= n
	}

	if finished {
		return offset, io.EOF
	}
	return offset, nil
}

// Start resumes the player
func (s *otoStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	s.open()
	s.player.Play()
	return nil
}

// Stop pauses the player and waits for an in-flight Read to return
func (s *otoStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	s.shut()
	s.player.Pause()
	return nil
}

// Close releases the player. The shared oto context stays alive.
func (s *otoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	s.closed = true

	s.shut()
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("failed to close player: %w", err)
	}

	log.Printf("Stream %s closed (oto)", s.ID())
	return nil
}
