// ABOUTME: Goroutine-driven stream for backends without a device thread
// ABOUTME: Pumps the render callback at buffer rate or as fast as possible
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
)

// sink receives the rendered frames of every buffer on the pump goroutine
type sink interface {
	write(buf []float32, frames int) error
	close() error
}

type clockedStream struct {
	*gate

	backend  string
	cfg      audio.StreamConfig
	realtime bool
	sink     sink
	buf      []float32

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	closed  bool
	sinkErr error
}

func newClockedStream(backend string, cfg audio.StreamConfig, cb FrameCallback, s sink, realtime bool) *clockedStream {
	return &clockedStream{
		gate:     newGate(cb, cfg.Channels),
		backend:  backend,
		cfg:      cfg,
		realtime: realtime,
		sink:     s,
		buf:      make([]float32, cfg.BufferSamples()),
	}
}

// Start launches the pump goroutine
func (s *clockedStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	if s.stop != nil {
		return nil
	}

	s.open()
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.pump(s.stop)
	return nil
}

func (s *clockedStream) pump(stop <-chan struct{}) {
	defer s.wg.Done()

	frames := s.cfg.FramesPerBuffer

	var tick <-chan time.Time
	if s.realtime {
		period := time.Duration(frames) * time.Second / time.Duration(s.cfg.SampleRate)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		if tick != nil {
			select {
			case <-stop:
				return
			case <-tick:
			}
		}

		n, finished := s.render(s.buf, frames)
		if n > 0 {
			if err := s.sink.write(s.buf, n); err != nil {
				log.Printf("Stream %s: %s sink error: %v", s.ID(), s.backend, err)
				s.sinkErr = err
				s.finished.Store(true)
				return
			}
		}
		if finished {
			return
		}
	}
}

// Stop signals the pump and waits for it to exit
func (s *clockedStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	return s.halt()
}

// halt must be called with s.mu held
func (s *clockedStream) halt() error {
	s.shut()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	s.wg.Wait()

	if s.sinkErr != nil {
		return fmt.Errorf("%s stream: %w", s.backend, s.sinkErr)
	}
	return nil
}

// Close stops the pump and closes the sink
func (s *clockedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotOpen
	}
	s.closed = true

	haltErr := s.halt()
	if err := s.sink.close(); err != nil {
		return fmt.Errorf("failed to close %s sink: %w", s.backend, err)
	}

	log.Printf("Stream %s closed (%s)", s.ID(), s.backend)
	return haltErr
}
