// ABOUTME: Audio output backend tests
// ABOUTME: Tests stream lifecycle, stop semantics and WAV recording
package output

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

func TestBackendsImplementInterface(t *testing.T) {
	var _ Backend = (*Malgo)(nil)
	var _ Backend = (*Oto)(nil)
	var _ Backend = (*PortAudio)(nil)
	var _ Backend = (*Null)(nil)
	var _ Backend = (*WAVFile)(nil)
	var _ FrameBackend = (*Null)(nil)
	var _ FrameBackend = (*WAVFile)(nil)
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		opts := Options{}
		if name == "wav" {
			opts.OutputFile = filepath.Join(t.TempDir(), "out.wav")
		}
		b, err := New(name, opts)
		if err != nil {
			t.Errorf("New(%q) error = %v", name, err)
			continue
		}
		if b.Name() != name {
			t.Errorf("expected name %q, got %q", name, b.Name())
		}
	}

	if _, err := New("alsa", Options{}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
	if _, err := New("wav", Options{}); err == nil {
		t.Error("expected error for wav backend without output file")
	}
}

func testConfig() audio.StreamConfig {
	cfg := audio.DefaultStreamConfig()
	cfg.FramesPerBuffer = 64
	return cfg
}

func TestOpenStreamRejectsInvalidConfig(t *testing.T) {
	cb := func(dst []float32, frames int) audio.Continuation { return audio.Continue }

	bad := testConfig()
	bad.Channels = 0

	backends := []Backend{NewNull(false), NewWAVFile(filepath.Join(t.TempDir(), "x.wav"), false)}
	for _, b := range backends {
		if _, err := b.OpenStream(bad, cb); err == nil {
			t.Errorf("%s: expected error for invalid config", b.Name())
		}
		if _, err := b.OpenStream(testConfig(), nil); err == nil {
			t.Errorf("%s: expected error for nil callback", b.Name())
		}
	}
}

func TestNullStreamLifecycle(t *testing.T) {
	cfg := testConfig()
	var calls atomic.Int64
	var badShape atomic.Bool

	cb := func(dst []float32, frames int) audio.Continuation {
		if frames != cfg.FramesPerBuffer || len(dst) != frames*cfg.Channels {
			badShape.Store(true)
		}
		calls.Add(1)
		return audio.Continue
	}

	stream, err := NewNull(true).OpenStream(cfg, cb)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}

	if err := stream.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := stream.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	afterStop := calls.Load()
	if afterStop == 0 {
		t.Fatal("expected callbacks while running")
	}

	time.Sleep(20 * time.Millisecond)
	if calls.Load() != afterStop {
		t.Errorf("expected no callbacks after Stop, got %d more", calls.Load()-afterStop)
	}
	if badShape.Load() {
		t.Error("callback received a buffer of unexpected shape")
	}
	if stream.Finished() {
		t.Error("expected stream not finished after external stop")
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := stream.Close(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen on second Close, got %v", err)
	}
	if err := stream.Start(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen on Start after Close, got %v", err)
	}
}

func TestNullStreamRestart(t *testing.T) {
	var calls atomic.Int64
	cb := func(dst []float32, frames int) audio.Continuation {
		calls.Add(1)
		return audio.Continue
	}

	stream, err := NewNull(true).OpenStream(testConfig(), cb)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	defer stream.Close()

	stream.Start()
	time.Sleep(10 * time.Millisecond)
	stream.Stop()
	first := calls.Load()

	stream.Start()
	time.Sleep(10 * time.Millisecond)
	stream.Stop()

	if calls.Load() <= first {
		t.Error("expected callbacks to resume after restart")
	}
}

func TestStreamFinishesOnStop(t *testing.T) {
	var calls atomic.Int64
	cb := func(dst []float32, frames int) audio.Continuation {
		if calls.Add(1) == 3 {
			return audio.Stop
		}
		return audio.Continue
	}

	stream, err := NewNull(false).OpenStream(testConfig(), cb)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !stream.Finished() {
		if time.Now().After(deadline) {
			t.Fatal("stream did not finish")
		}
		time.Sleep(time.Millisecond)
	}

	if err := stream.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 callbacks, got %d", calls.Load())
	}
}

func TestStreamIDs(t *testing.T) {
	cb := func(dst []float32, frames int) audio.Continuation { return audio.Continue }
	b := NewNull(false)

	a, _ := b.OpenStream(testConfig(), cb)
	c, _ := b.OpenStream(testConfig(), cb)
	defer a.Close()
	defer c.Close()

	if a.ID() == c.ID() {
		t.Error("expected distinct stream IDs")
	}
	if _, err := uuid.Parse(a.ID()); err != nil {
		t.Errorf("expected UUID stream ID, got %q", a.ID())
	}
}

func TestGateSilencesWhenInactive(t *testing.T) {
	called := false
	g := newGate(func(dst []float32, frames int) (int, audio.Continuation) {
		called = true
		return frames, audio.Continue
	}, 2)

	buf := []float32{1, 1, 1, 1}
	n, finished := g.render(buf, 2)

	if n != 0 || finished {
		t.Errorf("expected (0, false), got (%d, %v)", n, finished)
	}
	if called {
		t.Error("expected callback not to run on an inactive gate")
	}
	for i, v := range buf {
		if v != 0 {
			t.Errorf("expected silence at %d, got %f", i, v)
		}
	}
}

func TestWAVFileRecordsStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	cfg := testConfig()

	const buffers = 10
	var calls atomic.Int64
	cb := func(dst []float32, frames int) audio.Continuation {
		for i := range dst {
			dst[i] = 0.5
		}
		if calls.Add(1) == buffers {
			return audio.Stop
		}
		return audio.Continue
	}

	stream, err := NewWAVFile(path, false).OpenStream(cfg, cb)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	if err := stream.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !stream.Finished() {
		if time.Now().After(deadline) {
			t.Fatal("stream did not finish")
		}
		time.Sleep(time.Millisecond)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open recording: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("expected valid wav file")
	}
	if int(dec.NumChans) != cfg.Channels {
		t.Errorf("expected %d channels, got %d", cfg.Channels, dec.NumChans)
	}
	if int(dec.SampleRate) != cfg.SampleRate {
		t.Errorf("expected sample rate %d, got %d", cfg.SampleRate, dec.SampleRate)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}
	expectedLen := buffers * cfg.FramesPerBuffer * cfg.Channels
	if len(buf.Data) != expectedLen {
		t.Fatalf("expected %d samples, got %d", expectedLen, len(buf.Data))
	}
	expected := int(audio.FloatToInt16(0.5))
	if buf.Data[0] != expected || buf.Data[expectedLen-1] != expected {
		t.Errorf("expected samples of %d, got %d and %d", expected, buf.Data[0], buf.Data[expectedLen-1])
	}
}

func TestGateClampsRenderedFrames(t *testing.T) {
	tests := []struct {
		name     string
		reported int
		expected int
	}{
		{"full", 4, 4},
		{"partial", 3, 3},
		{"negative", -1, 0},
		{"too many", 9, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGate(func(dst []float32, frames int) (int, audio.Continuation) {
				return tt.reported, audio.Continue
			}, 2)
			g.open()

			n, _ := g.render(make([]float32, 8), 4)
			if n != tt.expected {
				t.Errorf("expected %d frames, got %d", tt.expected, n)
			}
		})
	}
}

func TestWAVFileRecordsOnlyRenderedFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limited.wav")
	cfg := testConfig()

	// Three full buffers, then 10 frames of signal and a silent tail
	const partial = 10
	var calls atomic.Int64
	cb := func(dst []float32, frames int) (int, audio.Continuation) {
		for i := range dst {
			dst[i] = 0.25
		}
		if calls.Add(1) == 4 {
			for i := partial * cfg.Channels; i < len(dst); i++ {
				dst[i] = 0
			}
			return partial, audio.Stop
		}
		return frames, audio.Continue
	}

	stream, err := NewWAVFile(path, false).OpenFrameStream(cfg, cb)
	if err != nil {
		t.Fatalf("OpenFrameStream() error = %v", err)
	}
	if err := stream.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !stream.Finished() {
		if time.Now().After(deadline) {
			t.Fatal("stream did not finish")
		}
		time.Sleep(time.Millisecond)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open recording: %v", err)
	}
	defer f.Close()

	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}

	expectedFrames := 3*cfg.FramesPerBuffer + partial
	if frames := len(buf.Data) / cfg.Channels; frames != expectedFrames {
		t.Fatalf("expected %d frames, got %d", expectedFrames, frames)
	}
	last := buf.Data[len(buf.Data)-1]
	if expected := int(audio.FloatToInt16(0.25)); last != expected {
		t.Errorf("expected last sample %d, got %d", expected, last)
	}
}
