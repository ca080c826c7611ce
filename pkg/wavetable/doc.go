// ABOUTME: Wavetable package documentation
// ABOUTME: Describes the one-cycle table generator
// Package wavetable builds precomputed single-cycle waveforms.
//
// Tables are generated once on the control thread and never change, so the
// real-time renderer can read them without synchronization.
//
// Example:
//
//	table, err := wavetable.Build(200)
//	if err != nil {
//	    return err
//	}
//	first := table.At(0) // sin(0) == 0
package wavetable
