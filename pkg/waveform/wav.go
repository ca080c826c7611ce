// ABOUTME: WAV waveform reader
// ABOUTME: Decodes PCM with go-audio/wav and keeps the first channel
package waveform

import (
	"fmt"
	"os"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/Resonate-Protocol/wavetone/pkg/source"
	"github.com/go-audio/wav"
)

func loadWAV(path string) ([]source.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if channels < 1 {
		return nil, fmt.Errorf("invalid WAV channel count: %d", channels)
	}

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		v := buf.Data[i*channels]
		// 8-bit PCM is unsigned
		if bitDepth == 8 {
			v -= 128
		}
		samples[i] = audio.IntToFloat(int32(v), bitDepth)
	}

	return FromSamples(samples), nil
}
