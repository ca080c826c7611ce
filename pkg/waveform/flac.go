// ABOUTME: FLAC waveform reader
// ABOUTME: Decodes frames with mewkiz/flac and keeps the first subframe
package waveform

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/Resonate-Protocol/wavetone/pkg/source"
	"github.com/mewkiz/flac"
)

func loadFLAC(path string) ([]source.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}
	defer f.Close()

	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	bitDepth := int(stream.Info.BitsPerSample)

	var samples []float32
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac decode error: %w", err)
		}
		if len(frame.Subframes) == 0 {
			continue
		}

		for _, s := range frame.Subframes[0].Samples {
			samples = append(samples, audio.IntToFloat(s, bitDepth))
		}
	}

	return FromSamples(samples), nil
}
