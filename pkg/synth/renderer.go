// ABOUTME: Real-time buffer filler driving oscillators over a sample source
// ABOUTME: Writes interleaved frames with no allocation, locking or I/O
package synth

import (
	"sync/atomic"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/Resonate-Protocol/wavetone/pkg/oscillator"
	"github.com/Resonate-Protocol/wavetone/pkg/source"
)

// Layout selects how voices map onto output channels
type Layout int

const (
	// Shared uses one voice and duplicates its amplitude into every channel
	Shared Layout = iota
	// PerChannel uses one voice per channel
	PerChannel
)

func (l Layout) String() string {
	switch l {
	case Shared:
		return "shared"
	case PerChannel:
		return "per-channel"
	default:
		return "unknown"
	}
}

// Stats are render counters, safe to read from any goroutine
type Stats struct {
	Buffers int64
	Frames  int64
	Faults  int64
	Stopped bool
}

// Renderer owns a source and its voices for the lifetime of a stream.
// Fill must only be called by one goroutine at a time; backends serialize
// their callbacks. RequestStop and Stats may be called concurrently.
type Renderer struct {
	src        source.Source
	voices     []oscillator.Voice
	layout     Layout
	channels   int
	frameLimit int64

	rendered int64 // frames written, only touched by Fill

	stopRequested atomic.Bool
	stopped       atomic.Bool
	buffers       atomic.Int64
	frames        atomic.Int64
	faults        atomic.Int64
}

// Channels returns the interleaved channel count Fill writes
func (r *Renderer) Channels() int { return r.channels }

// Layout returns the voice layout
func (r *Renderer) Layout() Layout { return r.layout }

// Fill writes frames interleaved frames into dst and reports whether the
// backend should keep calling. Sample (frame, channel) lands at
// dst[frame*channels+channel]; exactly frames*channels values are written.
//
// Fill runs on the backend's real-time thread: it never allocates, blocks
// or logs. A malformed call is answered with silence and Stop.
func (r *Renderer) Fill(dst []float32, frames int) audio.Continuation {
	_, sig := r.Render(dst, frames)
	return sig
}

// Render is Fill that also returns how many leading frames hold signal.
// It is less than frames only for the buffer that reaches the frame limit
// and for buffers answered with silence.
func (r *Renderer) Render(dst []float32, frames int) (int, audio.Continuation) {
	if frames < 0 || len(dst) < frames*r.channels || r.src == nil || r.src.Len() == 0 {
		silence(dst)
		r.faults.Add(1)
		r.stopped.Store(true)
		return 0, audio.Stop
	}

	if r.stopRequested.Load() || r.stopped.Load() {
		silence(dst[:frames*r.channels])
		r.stopped.Store(true)
		return 0, audio.Stop
	}

	n := frames
	if r.frameLimit > 0 {
		if left := r.frameLimit - r.rendered; int64(n) > left {
			n = int(left)
		}
	}

	switch r.layout {
	case PerChannel:
		r.fillPerChannel(dst, n)
	default:
		r.fillShared(dst, n)
	}
	silence(dst[n*r.channels : frames*r.channels])

	r.rendered += int64(n)
	r.buffers.Add(1)
	r.frames.Add(int64(n))

	if r.frameLimit > 0 && r.rendered >= r.frameLimit {
		r.stopped.Store(true)
		return n, audio.Stop
	}
	return n, audio.Continue
}

func (r *Renderer) fillShared(dst []float32, frames int) {
	voice := r.voices[0]
	idx := 0
	for f := 0; f < frames; f++ {
		v := voice.Next(r.src)
		for ch := 0; ch < r.channels; ch++ {
			dst[idx] = v
			idx++
		}
	}
}

func (r *Renderer) fillPerChannel(dst []float32, frames int) {
	idx := 0
	for f := 0; f < frames; f++ {
		for ch := 0; ch < r.channels; ch++ {
			dst[idx] = r.voices[ch].Next(r.src)
			idx++
		}
	}
}

// RequestStop makes the next Fill return Stop after writing silence
func (r *Renderer) RequestStop() {
	r.stopRequested.Store(true)
}

// Stats returns a snapshot of the render counters
func (r *Renderer) Stats() Stats {
	return Stats{
		Buffers: r.buffers.Load(),
		Frames:  r.frames.Load(),
		Faults:  r.faults.Load(),
		Stopped: r.stopped.Load(),
	}
}

func silence(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
