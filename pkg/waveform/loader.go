// ABOUTME: Waveform loading entry point
// ABOUTME: Dispatches on file extension to CSV, WAV, MP3, FLAC and Opus readers
package waveform

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/wavetone/pkg/source"
)

var (
	// ErrUnsupportedFormat is returned for file extensions Load cannot read
	ErrUnsupportedFormat = errors.New("unsupported waveform format")

	// ErrEmptyWaveform is returned when a file holds no samples
	ErrEmptyWaveform = errors.New("waveform has no samples")
)

// Extensions lists the file extensions Load understands
func Extensions() []string {
	return []string{".csv", ".txt", ".wav", ".mp3", ".flac", ".opus"}
}

// Load reads one cycle of a waveform from path. Audio files contribute
// their first channel; every sample becomes one point.
func Load(path string) ([]source.Point, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("waveform file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))

	var (
		points []source.Point
		err    error
	)
	switch ext {
	case ".csv", ".txt":
		points, err = loadCSV(path)
	case ".wav":
		points, err = loadWAV(path)
	case ".mp3":
		points, err = loadMP3(path)
	case ".flac":
		points, err = loadFLAC(path)
	case ".opus":
		points, err = loadOpus(path)
	default:
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(Extensions(), ", "))
	}
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyWaveform, path)
	}

	log.Printf("Loaded waveform: %s (%d points)", filepath.Base(path), len(points))
	return points, nil
}

// FromSamples numbers amplitudes by position
func FromSamples(samples []float32) []source.Point {
	points := make([]source.Point, len(samples))
	for i, a := range samples {
		points[i] = source.Point{Index: i, Amplitude: a}
	}
	return points
}
