// ABOUTME: Ogg Opus waveform reader
// ABOUTME: Decodes with libopusfile through hraban/opus and keeps the first channel
package waveform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/wavetone/pkg/source"
	"gopkg.in/hraban/opus.v2"
)

// opusfile decodes at 48kHz; 120ms is the longest Opus packet
const opusChunkFrames = 5760

// opusHeadMagic starts the identification header of every Ogg Opus stream
var opusHeadMagic = []byte("OpusHead")

func loadOpus(path string) ([]source.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Opus file: %w", err)
	}

	channels, err := opusChannels(data)
	if err != nil {
		return nil, err
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode Opus: %w", err)
	}
	defer stream.Close()

	pcm := make([]float32, opusChunkFrames*channels)
	var samples []float32
	for {
		n, err := stream.ReadFloat32(pcm)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opus decode error: %w", err)
		}
		for i := 0; i < n; i++ {
			samples = append(samples, pcm[i*channels])
		}
	}

	return FromSamples(samples), nil
}

// opusChannels reads the output channel count from the OpusHead packet.
// Decoded frames are interleaved with this many channels.
func opusChannels(data []byte) (int, error) {
	idx := bytes.Index(data, opusHeadMagic)
	if idx < 0 || idx+len(opusHeadMagic)+2 > len(data) {
		return 0, fmt.Errorf("failed to decode Opus: no OpusHead header")
	}

	// version byte, then channel count
	channels := int(data[idx+len(opusHeadMagic)+1])
	if channels == 0 {
		return 0, fmt.Errorf("failed to decode Opus: invalid channel count 0")
	}
	return channels, nil
}
