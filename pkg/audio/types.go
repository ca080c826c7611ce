// ABOUTME: Audio type definitions
// ABOUTME: Defines stream configuration, callback signal and sample conversions
package audio

import "fmt"

const (
	// Defaults match the classic PortAudio sine example
	DefaultChannels        = 2
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 64
)

// Continuation is returned by a real-time callback to tell the backend
// whether it wants to be invoked again.
type Continuation int

const (
	Continue Continuation = iota
	Stop
)

func (c Continuation) String() string {
	switch c {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("Continuation(%d)", int(c))
	}
}

// StreamFlags are backend hints for an output stream
type StreamFlags uint32

// ClipOff disables backend clipping; the renderer never emits samples
// outside [-1, 1].
const ClipOff StreamFlags = 1

// StreamConfig is the fixed channel configuration of an output stream
type StreamConfig struct {
	Channels        int
	SampleRate      int
	FramesPerBuffer int
	Flags           StreamFlags
}

// DefaultStreamConfig returns stereo 44.1kHz with 64-frame buffers
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Channels:        DefaultChannels,
		SampleRate:      DefaultSampleRate,
		FramesPerBuffer: DefaultFramesPerBuffer,
		Flags:           ClipOff,
	}
}

// Validate checks that every field is usable for opening a stream
func (c StreamConfig) Validate() error {
	if c.Channels < 1 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.FramesPerBuffer <= 0 {
		return fmt.Errorf("invalid frames per buffer: %d", c.FramesPerBuffer)
	}
	return nil
}

// BufferSamples returns the interleaved sample count of one buffer
func (c StreamConfig) BufferSamples() int {
	return c.Channels * c.FramesPerBuffer
}

// FloatToInt16 converts a [-1, 1] amplitude to int16, clamping out-of-range input
func FloatToInt16(sample float32) int16 {
	if sample >= 1 {
		return 32767
	}
	if sample <= -1 {
		return -32768
	}
	return int16(sample * 32767)
}

// Int16ToFloat converts an int16 sample to a [-1, 1) amplitude
func Int16ToFloat(sample int16) float32 {
	return float32(sample) / 32768
}

// IntToFloat normalizes a signed integer sample of the given bit depth
func IntToFloat(sample int32, bitDepth int) float32 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	scale := float64(int64(1) << uint(bitDepth-1))
	return float32(float64(sample) / scale)
}
