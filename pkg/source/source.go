// ABOUTME: Sample source abstraction over synthesized and external waveforms
// ABOUTME: Maps a normalized phase or a table index to an amplitude in O(1)
package source

import (
	"errors"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/wavetone/pkg/wavetable"
)

// ErrEmpty is returned when a source would have no samples
var ErrEmpty = errors.New("sample source must not be empty")

// Source provides amplitudes for one cycle of a periodic signal.
// Implementations are read-only after construction and safe to call from
// a real-time thread: no allocation, no locking, O(1).
type Source interface {
	// SampleAt returns the amplitude at normalized phase p using
	// floor(p*Len()) mod Len(), so SampleAt(p) == SampleAt(p+k) for integer k.
	SampleAt(phase float64) float32

	// At returns the amplitude at index i mod Len()
	At(i int) float32

	// Len returns the number of samples in one cycle
	Len() int
}

// Point is one entry of an externally supplied waveform
type Point struct {
	Index     int
	Amplitude float32
}

// Synthesized reads from a generated wavetable
type Synthesized struct {
	samples []float32
}

// NewSynthesized wraps a generated table
func NewSynthesized(table wavetable.Table) (*Synthesized, error) {
	if table.Len() == 0 {
		return nil, fmt.Errorf("synthesized source: %w", ErrEmpty)
	}
	return &Synthesized{samples: table.Samples()}, nil
}

func (s *Synthesized) SampleAt(phase float64) float32 {
	return s.samples[phaseIndex(phase, len(s.samples))]
}

func (s *Synthesized) At(i int) float32 {
	return s.samples[wrapIndex(i, len(s.samples))]
}

func (s *Synthesized) Len() int { return len(s.samples) }

// External reads from a waveform loaded before the stream starts. Only the
// amplitude of each point is used; points are addressed by position.
type External struct {
	points []Point
}

// NewExternal copies points so the caller keeps no alias into the source
func NewExternal(points []Point) (*External, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("external source: %w", ErrEmpty)
	}
	for i, p := range points {
		a := float64(p.Amplitude)
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("external source: non-finite amplitude at point %d", i)
		}
	}

	owned := make([]Point, len(points))
	copy(owned, points)
	return &External{points: owned}, nil
}

func (e *External) SampleAt(phase float64) float32 {
	return e.points[phaseIndex(phase, len(e.points))].Amplitude
}

func (e *External) At(i int) float32 {
	return e.points[wrapIndex(i, len(e.points))].Amplitude
}

func (e *External) Len() int { return len(e.points) }

// phaseIndex computes floor(phase*n) mod n with the result in [0, n)
func phaseIndex(phase float64, n int) int {
	i := int(math.Floor(phase*float64(n))) % n
	if i < 0 {
		i += n
	}
	return i
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
