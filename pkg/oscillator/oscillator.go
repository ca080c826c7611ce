// ABOUTME: Phase accumulators that advance one step per output frame
// ABOUTME: Provides a normalized float phase and an integer table-index phase
package oscillator

import (
	"errors"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/wavetone/pkg/source"
)

// ErrInvalidIncrement is returned when a phase increment cannot be derived
var ErrInvalidIncrement = errors.New("invalid phase increment")

// Voice advances its phase by one frame and reads the source at the new phase
type Voice interface {
	Next(src source.Source) float32
}

// Phase is a normalized phase accumulator. The phase is a float64 in
// [0, 1) and advances by frequency/sampleRate per frame.
type Phase struct {
	phase     float64
	increment float64
}

// NewPhase derives the increment from frequency and sample rate
func NewPhase(frequency, sampleRate float64) (*Phase, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate must be > 0, got %v", ErrInvalidIncrement, sampleRate)
	}
	if frequency < 0 || frequency >= sampleRate || math.IsNaN(frequency) {
		return nil, fmt.Errorf("%w: frequency must be in [0, %v), got %v", ErrInvalidIncrement, sampleRate, frequency)
	}

	return &Phase{increment: frequency / sampleRate}, nil
}

// WithOffset sets the starting phase, wrapped into [0, 1)
func (p *Phase) WithOffset(offset float64) *Phase {
	p.phase = wrapUnit(offset)
	return p
}

// Step advances the phase and returns it, always in [0, 1)
func (p *Phase) Step() float64 {
	p.phase = wrapUnit(p.phase + p.increment)
	return p.phase
}

// Current returns the phase without advancing
func (p *Phase) Current() float64 { return p.phase }

// Increment returns the per-frame phase increment
func (p *Phase) Increment() float64 { return p.increment }

// Next steps and reads src at the new normalized phase
func (p *Phase) Next(src source.Source) float32 {
	return src.SampleAt(p.Step())
}

// wrapUnit reduces x into [0, 1). math.Mod keeps the sign of x and can
// round up to exactly 1 for tiny negative inputs, so both cases are folded.
func wrapUnit(x float64) float64 {
	x = math.Mod(x, 1)
	if x < 0 {
		x++
	}
	if x >= 1 {
		x = 0
	}
	return x
}

// Index is an integer phase accumulator over a table of bound samples.
// The phase is an int in [0, bound) and advances by step*multiplier.
type Index struct {
	phase     int
	increment int
	bound     int
}

// NewIndex creates an index accumulator. The multiplier lets one channel
// run at a multiple of another's rate (left 1, right 3 gives the detuned
// stereo image of the classic sine example).
func NewIndex(bound, step, multiplier int) (*Index, error) {
	if bound <= 0 {
		return nil, fmt.Errorf("%w: bound must be > 0, got %d", ErrInvalidIncrement, bound)
	}
	inc := step * multiplier
	if inc <= 0 || inc >= bound {
		return nil, fmt.Errorf("%w: step %d * multiplier %d must be in (0, %d)", ErrInvalidIncrement, step, multiplier, bound)
	}

	return &Index{increment: inc, bound: bound}, nil
}

// IndexStep derives the base per-frame index step for a table of bound
// samples played at frequency, rounding to the nearest whole step.
func IndexStep(frequency, sampleRate float64, bound int) (int, error) {
	if sampleRate <= 0 || bound <= 0 {
		return 0, fmt.Errorf("%w: sample rate %v and bound %d must be > 0", ErrInvalidIncrement, sampleRate, bound)
	}
	step := int(math.Round(frequency * float64(bound) / sampleRate))
	if step <= 0 || step >= bound {
		return 0, fmt.Errorf("%w: %v Hz gives step %d on a %d-sample table at %v Hz", ErrInvalidIncrement, frequency, step, bound, sampleRate)
	}
	return step, nil
}

// Step advances the index and returns it, always in [0, bound). The
// increment is smaller than bound, so one subtraction suffices.
func (x *Index) Step() int {
	x.phase += x.increment
	if x.phase >= x.bound {
		x.phase -= x.bound
	}
	return x.phase
}

// Current returns the index without advancing
func (x *Index) Current() int { return x.phase }

// Increment returns the per-frame index increment
func (x *Index) Increment() int { return x.increment }

// Bound returns the table length the index wraps at
func (x *Index) Bound() int { return x.bound }

// Frequency returns the output frequency for this accumulator at sampleRate
func (x *Index) Frequency(sampleRate float64) float64 {
	return float64(x.increment) * sampleRate / float64(x.bound)
}

// Next steps and reads src at the new index
func (x *Index) Next(src source.Source) float32 {
	return src.At(x.Step())
}
