//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform callback stream on the default output device
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio opens streams on the default PortAudio host API
type PortAudio struct{}

// NewPortAudio creates a new PortAudio backend
func NewPortAudio() Backend {
	return &PortAudio{}
}

// Name returns the backend name
func (p *PortAudio) Name() string { return "portaudio" }

// OpenStream initializes PortAudio and opens a low-latency output stream
func (p *PortAudio) OpenStream(cfg audio.StreamConfig, cb Callback) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, fmt.Errorf("nil callback")
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	h, err := portaudio.DefaultHostApi()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to get default host api: %w", err)
	}
	if h.DefaultOutputDevice == nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("no default output device")
	}

	params := portaudio.LowLatencyParameters(nil, h.DefaultOutputDevice)
	params.Output.Channels = cfg.Channels
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = cfg.FramesPerBuffer
	if cfg.Flags&audio.ClipOff != 0 {
		params.Flags = portaudio.ClipOff
	}

	s := &portAudioStream{
		gate:     newGate(cb.counted(), cfg.Channels),
		channels: cfg.Channels,
	}

	stream, err := portaudio.OpenStream(params, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	s.stream = stream

	log.Printf("Stream %s opened: %dHz, %d channels, %d frames/buffer (portaudio/%s)",
		s.ID(), cfg.SampleRate, cfg.Channels, cfg.FramesPerBuffer, h.Name)

	return s, nil
}

type portAudioStream struct {
	*gate

	stream   *portaudio.Stream
	channels int

	mu      sync.Mutex
	running bool
	closed  bool
}

func (s *portAudioStream) process(out []float32) {
	s.render(out, len(out)/s.channels)
}

// Start starts the PortAudio stream
func (s *portAudioStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	if s.running {
		return nil
	}

	s.open()
	if err := s.stream.Start(); err != nil {
		s.shut()
		return fmt.Errorf("failed to start stream: %w", err)
	}
	s.running = true
	return nil
}

// Stop stops the stream. PortAudio waits for pending callbacks.
func (s *portAudioStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	s.shut()
	if !s.running {
		return nil
	}
	s.running = false
	return s.stream.Stop()
}

// Close closes the stream and terminates PortAudio
func (s *portAudioStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	s.closed = true
	s.shut()

	if s.running {
		s.running = false
		if err := s.stream.Stop(); err != nil {
			log.Printf("Warning: portaudio stop error: %v", err)
		}
	}
	if err := s.stream.Close(); err != nil {
		return err
	}

	log.Printf("Stream %s closed (portaudio)", s.ID())
	return portaudio.Terminate()
}
