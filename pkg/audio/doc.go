// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines StreamConfig, the callback Continuation signal and sample conversions
// Package audio provides fundamental audio types shared by the synthesis core
// and the output backends.
//
// This package defines:
//   - StreamConfig: channel count, sample rate and buffer size of an output stream
//   - Continuation: the value a real-time callback returns to keep going or stop
//
// It also provides conversions between float32 amplitudes in [-1, 1] and
// integer PCM samples.
//
// Example:
//
//	cfg := audio.DefaultStreamConfig()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	pcm := audio.FloatToInt16(0.5)
package audio
