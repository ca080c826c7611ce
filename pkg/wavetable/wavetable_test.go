// ABOUTME: Tests for wavetable generation
// ABOUTME: Verifies sine values, size validation and immutability
package wavetable

import (
	"errors"
	"math"
	"testing"
)

func TestBuildSineValues(t *testing.T) {
	sizes := []int{1, 2, 3, 7, 64, 200, 1024, 4096}

	for _, size := range sizes {
		table, err := Build(size)
		if err != nil {
			t.Fatalf("Build(%d) error = %v", size, err)
		}
		if table.Len() != size {
			t.Fatalf("expected %d samples, got %d", size, table.Len())
		}
		for i := 0; i < size; i++ {
			expected := math.Sin(2 * math.Pi * float64(i) / float64(size))
			if diff := math.Abs(float64(table.At(i)) - expected); diff > 1e-6 {
				t.Errorf("size %d index %d: expected %f, got %f", size, i, expected, table.At(i))
			}
		}
	}
}

func TestBuildRange(t *testing.T) {
	table, err := Build(200)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for i, v := range table.Samples() {
		if v < -1 || v > 1 {
			t.Errorf("sample %d out of range: %f", i, v)
		}
	}
	// Quarter cycle is the peak
	if table.At(50) != 1 {
		t.Errorf("expected peak 1 at index 50, got %f", table.At(50))
	}
}

func TestBuildInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1, -200} {
		table, err := Build(size)
		if err == nil {
			t.Fatalf("expected error for size %d, got nil", size)
		}
		if !errors.Is(err, ErrInvalidSize) {
			t.Errorf("expected ErrInvalidSize, got %v", err)
		}
		if table.Len() != 0 {
			t.Errorf("expected empty table, got %d samples", table.Len())
		}
	}
}

func TestSamplesReturnsCopy(t *testing.T) {
	table, err := Build(8)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	samples := table.Samples()
	samples[2] = 42

	if table.At(2) == 42 {
		t.Error("mutating Samples() result changed the table")
	}
}

func TestBuildDeterministic(t *testing.T) {
	a, _ := Build(333)
	b, _ := Build(333)
	for i := 0; i < a.Len(); i++ {
		if a.At(i) != b.At(i) {
			t.Fatalf("mismatch at %d: %v != %v", i, a.At(i), b.At(i))
		}
	}
}
