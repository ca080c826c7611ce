// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Drives the render callback from miniaudio's playback thread as float32
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/gen2brain/malgo"
)

// Malgo opens streams on the default playback device through miniaudio
type Malgo struct{}

// NewMalgo creates a new Malgo backend
func NewMalgo() Backend {
	return &Malgo{}
}

// Name returns the backend name
func (m *Malgo) Name() string { return "malgo" }

// OpenStream initializes a miniaudio context and playback device
func (m *Malgo) OpenStream(cfg audio.StreamConfig, cb Callback) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, fmt.Errorf("nil callback")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	s := &malgoStream{
		gate:     newGate(cb.counted(), cfg.Channels),
		malgoCtx: ctx,
		scratch:  make([]float32, cfg.BufferSamples()),
		channels: cfg.Channels,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.FramesPerBuffer)
	deviceConfig.NoClip = boolToUint32(cfg.Flags&audio.ClipOff != 0)
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			s.dataCallback(pOutputSample, frameCount)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	s.device = device

	log.Printf("Stream %s opened: %dHz, %d channels, %d frames/buffer (malgo/F32)",
		s.ID(), cfg.SampleRate, cfg.Channels, cfg.FramesPerBuffer)

	return s, nil
}

type malgoStream struct {
	*gate

	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	scratch  []float32
	channels int

	mu     sync.Mutex
	closed bool
}

// dataCallback renders into the scratch buffer in chunks no larger than
// the configured period, then encodes float32 little-endian into pOutput
func (s *malgoStream) dataCallback(pOutput []byte, frameCount uint32) {
	frames := int(frameCount)
	chunkFrames := len(s.scratch) / s.channels
	offset := 0

	for frames > 0 {
		n := frames
		if n > chunkFrames {
			n = chunkFrames
		}
		chunk := s.scratch[:n*s.channels]
		s.render(chunk, n)

		for _, v := range chunk {
			binary.LittleEndian.PutUint32(pOutput[offset:], math.Float32bits(v))
			offset += 4
		}
		frames -= n
	}
}

// Start starts the playback device
func (s *malgoStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	if s.device.IsStarted() {
		return nil
	}

	s.open()
	if err := s.device.Start(); err != nil {
		s.shut()
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// Stop stops the playback device. miniaudio waits for the data callback
// to return before Stop completes.
func (s *malgoStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}

	s.shut()
	if s.device.IsStarted() {
		if err := s.device.Stop(); err != nil {
			return fmt.Errorf("failed to stop device: %w", err)
		}
	}
	return nil
}

// Close releases the device and the miniaudio context
func (s *malgoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	s.closed = true

	s.shut()
	s.device.Uninit()

	if err := s.malgoCtx.Uninit(); err != nil {
		log.Printf("Warning: malgo context uninit error: %v", err)
	}
	s.malgoCtx.Free()

	log.Printf("Stream %s closed (malgo)", s.ID())
	return nil
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
