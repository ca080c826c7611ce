// ABOUTME: WAV file output that records the rendered stream
// ABOUTME: Encodes 16-bit PCM with go-audio/wav, paced or offline
package output

import (
	"fmt"
	"log"
	"os"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavBitDepth is the PCM depth written to disk
const wavBitDepth = 16

// WAVFile writes everything the callback renders to a WAV file
type WAVFile struct {
	path     string
	realtime bool
}

// NewWAVFile creates a WAV file backend. With realtime false the stream
// renders as fast as the encoder accepts buffers.
func NewWAVFile(path string, realtime bool) FrameBackend {
	return &WAVFile{path: path, realtime: realtime}
}

// Name returns the backend name
func (w *WAVFile) Name() string { return "wav" }

// OpenStream creates the output file and its encoder
func (w *WAVFile) OpenStream(cfg audio.StreamConfig, cb Callback) (Stream, error) {
	if cb == nil {
		return nil, fmt.Errorf("nil callback")
	}
	return w.OpenFrameStream(cfg, cb.counted())
}

// OpenFrameStream records only the frames cb reports as rendered, so the
// file holds exactly the rendered length
func (w *WAVFile) OpenFrameStream(cfg audio.StreamConfig, cb FrameCallback) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, fmt.Errorf("nil callback")
	}

	f, err := os.Create(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to create wav file: %w", err)
	}

	ws := &wavSink{
		file:     f,
		encoder:  wav.NewEncoder(f, cfg.SampleRate, wavBitDepth, cfg.Channels, 1),
		channels: cfg.Channels,
		data:     make([]int, cfg.BufferSamples()),
	}
	ws.buf = &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: cfg.Channels, SampleRate: cfg.SampleRate},
		SourceBitDepth: wavBitDepth,
	}

	s := newClockedStream(w.Name(), cfg, cb, ws, w.realtime)
	log.Printf("Stream %s opened: %dHz, %d channels, %d frames/buffer (wav %s, realtime=%v)",
		s.ID(), cfg.SampleRate, cfg.Channels, cfg.FramesPerBuffer, w.path, w.realtime)
	return s, nil
}

type wavSink struct {
	file     *os.File
	encoder  *wav.Encoder
	channels int
	data     []int
	buf      *goaudio.IntBuffer
}

func (w *wavSink) write(samples []float32, frames int) error {
	n := frames * w.channels
	for i, v := range samples[:n] {
		w.data[i] = int(audio.FloatToInt16(v))
	}
	w.buf.Data = w.data[:n]
	return w.encoder.Write(w.buf)
}

func (w *wavSink) close() error {
	if err := w.encoder.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return w.file.Close()
}
