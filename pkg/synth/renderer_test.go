// ABOUTME: Tests for the real-time renderer
// ABOUTME: Tests interleaving, layouts, stop signals, faults and allocation
package synth

import (
	"sync"
	"testing"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/Resonate-Protocol/wavetone/pkg/oscillator"
	"github.com/Resonate-Protocol/wavetone/pkg/source"
	"github.com/Resonate-Protocol/wavetone/pkg/wavetable"
)

// rampSource returns its index as amplitude so tests can read phases back
type rampSource struct{ n int }

func (s rampSource) SampleAt(phase float64) float32 {
	i := int(phase*float64(s.n)) % s.n
	return float32(i)
}
func (s rampSource) At(i int) float32 { return float32(i % s.n) }
func (s rampSource) Len() int         { return s.n }

func mustIndex(t *testing.T, bound, step, multiplier int) *oscillator.Index {
	t.Helper()
	x, err := oscillator.NewIndex(bound, step, multiplier)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	return x
}

func stereoRenderer(t *testing.T, limit int64) *Renderer {
	t.Helper()
	r, err := NewBuilder(2, PerChannel).
		Source(rampSource{n: 200}).
		Voice(mustIndex(t, 200, 1, 1)).
		Voice(mustIndex(t, 200, 1, 3)).
		FrameLimit(limit).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return r
}

func TestFillPerChannelInterleaving(t *testing.T) {
	r := stereoRenderer(t, 0)

	const frames = 64
	buf := make([]float32, frames*2)
	if sig := r.Fill(buf, frames); sig != audio.Continue {
		t.Fatalf("expected Continue, got %v", sig)
	}

	for f := 0; f < frames; f++ {
		left := float32((f + 1) % 200)
		right := float32((3 * (f + 1)) % 200)
		if buf[f*2] != left {
			t.Errorf("frame %d left: expected %f, got %f", f, left, buf[f*2])
		}
		if buf[f*2+1] != right {
			t.Errorf("frame %d right: expected %f, got %f", f, right, buf[f*2+1])
		}
	}
}

func TestFillStereoDetuneScenario(t *testing.T) {
	r := stereoRenderer(t, 0)

	buf := make([]float32, 200*2)
	r.Fill(buf, 200)

	// Frame index 49 is the 50th step
	if buf[49*2] != 50 || buf[49*2+1] != 150 {
		t.Errorf("frame 50: expected (50, 150), got (%f, %f)", buf[49*2], buf[49*2+1])
	}
	// The 200th step brings both phases back to 0
	if buf[199*2] != 0 || buf[199*2+1] != 0 {
		t.Errorf("frame 200: expected (0, 0), got (%f, %f)", buf[199*2], buf[199*2+1])
	}
}

func TestFillSharedLayout(t *testing.T) {
	for _, channels := range []int{1, 2, 6} {
		p, err := oscillator.NewPhase(11025, 44100)
		if err != nil {
			t.Fatalf("NewPhase() error = %v", err)
		}
		r, err := NewBuilder(channels, Shared).Source(rampSource{n: 4}).Voice(p).Build()
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		const frames = 8
		buf := make([]float32, frames*channels)
		r.Fill(buf, frames)

		// Quarter-cycle steps over a 4-sample ramp: 1, 2, 3, 0, ...
		for f := 0; f < frames; f++ {
			expected := float32((f + 1) % 4)
			for ch := 0; ch < channels; ch++ {
				if got := buf[f*channels+ch]; got != expected {
					t.Errorf("%d channels, frame %d ch %d: expected %f, got %f", channels, f, ch, expected, got)
				}
			}
		}
	}
}

func TestFillWritesExactlyFramesTimesChannels(t *testing.T) {
	r := stereoRenderer(t, 0)

	const frames = 10
	buf := make([]float32, frames*2+4)
	for i := range buf {
		buf[i] = -7
	}
	r.Fill(buf, frames)

	for i := 0; i < frames*2; i++ {
		if buf[i] == -7 {
			t.Errorf("position %d not written", i)
		}
	}
	for i := frames * 2; i < len(buf); i++ {
		if buf[i] != -7 {
			t.Errorf("position %d beyond frames*channels was written", i)
		}
	}
}

func TestFillContinuesAcrossBuffers(t *testing.T) {
	r := stereoRenderer(t, 0)
	buf := make([]float32, 2*64)

	for i := 0; i < 3; i++ {
		r.Fill(buf, 64)
	}
	// 192 steps in, left phase is 192 and right is 576 mod 200 = 176
	r.Fill(buf, 1)
	if buf[0] != 193 || buf[1] != float32((3*193)%200) {
		t.Errorf("expected (193, %d), got (%f, %f)", (3*193)%200, buf[0], buf[1])
	}

	stats := r.Stats()
	if stats.Buffers != 4 || stats.Frames != 193 {
		t.Errorf("expected 4 buffers / 193 frames, got %d / %d", stats.Buffers, stats.Frames)
	}
}

func TestFillFrameLimit(t *testing.T) {
	r := stereoRenderer(t, 100)
	buf := make([]float32, 64*2)

	if sig := r.Fill(buf, 64); sig != audio.Continue {
		t.Fatalf("expected Continue on first buffer, got %v", sig)
	}
	if sig := r.Fill(buf, 64); sig != audio.Stop {
		t.Fatalf("expected Stop when limit reached, got %v", sig)
	}
	// Frames 36..63 of the second buffer are past the limit
	for i := 36 * 2; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("expected silence past the limit at %d, got %f", i, buf[i])
		}
	}
	if buf[35*2] != 100 {
		t.Errorf("expected last rendered left sample 100, got %f", buf[35*2])
	}

	stats := r.Stats()
	if stats.Frames != 100 {
		t.Errorf("expected 100 frames rendered, got %d", stats.Frames)
	}
	if !stats.Stopped {
		t.Error("expected renderer to report stopped")
	}

	for i := range buf {
		buf[i] = 1
	}
	if sig := r.Fill(buf, 64); sig != audio.Stop {
		t.Errorf("expected Stop after limit, got %v", sig)
	}
	if buf[0] != 0 {
		t.Error("expected silence after limit")
	}
}

func TestRenderReportsRenderedFrames(t *testing.T) {
	r := stereoRenderer(t, 100)
	buf := make([]float32, 64*2)

	tests := []struct {
		name   string
		frames int
		sig    audio.Continuation
	}{
		{"full buffer", 64, audio.Continue},
		{"buffer reaching the limit", 36, audio.Stop},
		{"after the limit", 0, audio.Stop},
	}

	for _, tt := range tests {
		n, sig := r.Render(buf, 64)
		if n != tt.frames {
			t.Errorf("%s: expected %d frames, got %d", tt.name, tt.frames, n)
		}
		if sig != tt.sig {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.sig, sig)
		}
	}
}

func TestRequestStop(t *testing.T) {
	r := stereoRenderer(t, 0)
	buf := make([]float32, 16*2)

	if sig := r.Fill(buf, 16); sig != audio.Continue {
		t.Fatalf("expected Continue, got %v", sig)
	}

	r.RequestStop()

	for i := range buf {
		buf[i] = 1
	}
	if sig := r.Fill(buf, 16); sig != audio.Stop {
		t.Fatalf("expected Stop after RequestStop, got %v", sig)
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected silence at %d, got %f", i, v)
		}
	}
}

func TestRequestStopConcurrent(t *testing.T) {
	r := stereoRenderer(t, 0)
	buf := make([]float32, 64*2)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r.Fill(buf, 64) == audio.Continue {
		}
	}()

	r.RequestStop()
	wg.Wait()

	if !r.Stats().Stopped {
		t.Error("expected renderer to be stopped")
	}
}

func TestFillFaults(t *testing.T) {
	tests := []struct {
		name   string
		buf    []float32
		frames int
	}{
		{"short buffer", make([]float32, 10), 64},
		{"negative frames", make([]float32, 10), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := stereoRenderer(t, 0)
			for i := range tt.buf {
				tt.buf[i] = 1
			}
			if sig := r.Fill(tt.buf, tt.frames); sig != audio.Stop {
				t.Fatalf("expected Stop, got %v", sig)
			}
			for i, v := range tt.buf {
				if v != 0 {
					t.Fatalf("expected silence at %d, got %f", i, v)
				}
			}
			if r.Stats().Faults != 1 {
				t.Errorf("expected 1 fault, got %d", r.Stats().Faults)
			}
		})
	}
}

func TestFillInvalidSourceEmitsSilence(t *testing.T) {
	// A zero-value renderer has no source; Fill must still be safe
	r := &Renderer{channels: 2}
	buf := []float32{1, 1, 1, 1}

	if sig := r.Fill(buf, 2); sig != audio.Stop {
		t.Fatalf("expected Stop, got %v", sig)
	}
	for i, v := range buf {
		if v != 0 {
			t.Errorf("expected silence at %d, got %f", i, v)
		}
	}
}

func TestFillDoesNotAllocate(t *testing.T) {
	table, _ := wavetable.Build(200)
	src, _ := source.NewSynthesized(table)
	p, _ := oscillator.NewPhase(440, 44100)

	layouts := map[string]*Renderer{}

	shared, err := NewBuilder(2, Shared).Source(src).Voice(p).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	layouts["shared"] = shared

	perChannel, err := NewBuilder(2, PerChannel).
		Source(src).
		Voice(mustIndex(t, 200, 1, 1)).
		Voice(mustIndex(t, 200, 1, 3)).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	layouts["per-channel"] = perChannel

	for name, r := range layouts {
		buf := make([]float32, 2*512)
		allocs := testing.AllocsPerRun(100, func() {
			r.Fill(buf, 512)
		})
		if allocs != 0 {
			t.Errorf("%s: expected 0 allocations, got %f", name, allocs)
		}
	}
}

func TestFillSineAmplitudeRange(t *testing.T) {
	table, _ := wavetable.Build(200)
	src, _ := source.NewSynthesized(table)
	p, _ := oscillator.NewPhase(440, 44100)
	r, err := NewBuilder(2, Shared).Source(src).Voice(p).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	buf := make([]float32, 2*4096)
	r.Fill(buf, 4096)
	for i, v := range buf {
		if v < -1 || v > 1 {
			t.Fatalf("sample %d out of range: %f", i, v)
		}
	}
}

func TestLayoutString(t *testing.T) {
	if Shared.String() != "shared" || PerChannel.String() != "per-channel" || Layout(9).String() != "unknown" {
		t.Error("unexpected layout names")
	}
}
