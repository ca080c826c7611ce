// ABOUTME: Shared stream state for all backends
// ABOUTME: Gates callback invocations so Stop can wait for in-flight renders
package output

import (
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/google/uuid"
)

// gate wraps a Callback with the state every backend needs: whether the
// stream is running, whether the callback asked to stop, and how many
// renders are in flight. Only atomics are touched on the audio thread.
type gate struct {
	id       string
	cb       FrameCallback
	channels int

	active   atomic.Bool
	finished atomic.Bool
	inflight atomic.Int32
}

func newGate(cb FrameCallback, channels int) *gate {
	return &gate{
		id:       uuid.New().String(),
		cb:       cb,
		channels: channels,
	}
}

// render invokes the callback unless the stream is stopped or finished,
// in which case dst is silenced. It returns the number of frames carrying
// signal and whether the stream is finished.
func (g *gate) render(dst []float32, frames int) (int, bool) {
	g.inflight.Add(1)

	if !g.active.Load() || g.finished.Load() {
		silence(dst)
		g.inflight.Add(-1)
		return 0, g.finished.Load()
	}

	n, sig := g.cb(dst, frames)
	if sig == audio.Stop {
		g.finished.Store(true)
	}
	if n < 0 {
		n = 0
	} else if n > frames {
		n = frames
	}

	g.inflight.Add(-1)
	return n, g.finished.Load()
}

func (g *gate) open() {
	g.active.Store(true)
}

// shut stops further callbacks and waits for a running one to return
func (g *gate) shut() {
	g.active.Store(false)
	for g.inflight.Load() != 0 {
		time.Sleep(100 * time.Microsecond)
	}
}

func (g *gate) ID() string { return g.id }

func (g *gate) Finished() bool { return g.finished.Load() }

func silence(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
