// ABOUTME: Audio output interface definition
// ABOUTME: Common Backend and Stream interfaces for callback-driven playback
package output

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
)

var (
	// ErrNotOpen is returned when a stream is used after Close
	ErrNotOpen = errors.New("stream not open")

	// ErrUnknownBackend is returned by New for an unrecognized name
	ErrUnknownBackend = errors.New("unknown backend")
)

// Callback fills dst with frames interleaved frames. It runs on the
// backend's audio thread and must not block or allocate.
type Callback func(dst []float32, frames int) audio.Continuation

// FrameCallback is a Callback that also returns how many leading frames of
// dst carry rendered signal. The remaining frames are silence.
type FrameCallback func(dst []float32, frames int) (int, audio.Continuation)

// counted treats every buffer the callback fills as full of signal
func (cb Callback) counted() FrameCallback {
	return func(dst []float32, frames int) (int, audio.Continuation) {
		return frames, cb(dst, frames)
	}
}

// Backend opens output streams on an audio device
type Backend interface {
	// OpenStream prepares a stream that will invoke cb once started
	OpenStream(cfg audio.StreamConfig, cb Callback) (Stream, error)

	// Name returns the backend name used in logs and flags
	Name() string
}

// FrameBackend is implemented by backends that record their output. Only
// the frames a FrameCallback reports as rendered reach the recording, so a
// stream stopped mid-buffer does not end in padding.
type FrameBackend interface {
	Backend
	OpenFrameStream(cfg audio.StreamConfig, cb FrameCallback) (Stream, error)
}

// Stream is an open output stream
type Stream interface {
	// Start begins invoking the callback
	Start() error

	// Stop halts playback. No callback runs after Stop returns.
	Stop() error

	// Close releases the stream and its device
	Close() error

	// Finished reports whether the callback has returned audio.Stop
	Finished() bool

	// ID identifies the stream in logs
	ID() string
}

// Options configures backends created by New
type Options struct {
	// OutputFile is the destination of the wav backend
	OutputFile string

	// Realtime paces the null and wav backends at the stream's sample rate.
	// When false they render as fast as possible.
	Realtime bool
}

// Names lists the backends New understands
func Names() []string {
	return []string{"malgo", "oto", "portaudio", "null", "wav"}
}

// New creates a backend by name
func New(name string, opts Options) (Backend, error) {
	switch name {
	case "malgo":
		return NewMalgo(), nil
	case "oto":
		return NewOto(), nil
	case "portaudio":
		return NewPortAudio(), nil
	case "null":
		return NewNull(opts.Realtime), nil
	case "wav":
		if opts.OutputFile == "" {
			return nil, fmt.Errorf("wav backend requires an output file")
		}
		return NewWAVFile(opts.OutputFile, opts.Realtime), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}
