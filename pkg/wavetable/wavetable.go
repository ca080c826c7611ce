// ABOUTME: Wavetable generator for one-cycle synthesized waveforms
// ABOUTME: Builds immutable sine tables off the real-time path
package wavetable

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSize is returned when a table size is not positive
var ErrInvalidSize = errors.New("wavetable size must be > 0")

// Table holds exactly one cycle of a periodic waveform. It has no mutating
// methods, so a Table value can be shared freely once built.
type Table struct {
	samples []float32
}

// Build generates a sine table where sample i = sin(2*pi*i/size)
func Build(size int) (Table, error) {
	if size <= 0 {
		return Table{}, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	samples := make([]float32, size)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(size)))
	}

	return Table{samples: samples}, nil
}

// Len returns the number of samples in one cycle
func (t Table) Len() int { return len(t.samples) }

// At returns sample i. The caller keeps i in [0, Len()).
func (t Table) At(i int) float32 { return t.samples[i] }

// Samples returns a copy of the table
func (t Table) Samples() []float32 {
	out := make([]float32, len(t.samples))
	copy(out, t.samples)
	return out
}
