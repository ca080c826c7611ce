// ABOUTME: MP3 waveform reader
// ABOUTME: Decodes with go-mp3 and keeps the left channel
package waveform

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/wavetone/pkg/audio"
	"github.com/Resonate-Protocol/wavetone/pkg/source"
	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to 16-bit little-endian stereo
const mp3FrameBytes = 4

func loadMP3(path string) ([]source.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	return FromSamples(mp3LeftChannel(pcm)), nil
}

// mp3LeftChannel converts decoded 16-bit stereo PCM to left-channel amplitudes
func mp3LeftChannel(pcm []byte) []float32 {
	frames := len(pcm) / mp3FrameBytes
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(pcm[i*mp3FrameBytes:]))
		samples[i] = audio.Int16ToFloat(left)
	}
	return samples
}
