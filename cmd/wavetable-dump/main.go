// ABOUTME: Exports a sample source as CSV
// ABOUTME: Dumps the generated sine table or a loaded waveform for inspection
package main

import (
	"flag"
	"log"
	"os"

	"github.com/Resonate-Protocol/wavetone/pkg/source"
	"github.com/Resonate-Protocol/wavetone/pkg/waveform"
	"github.com/Resonate-Protocol/wavetone/pkg/wavetable"
)

var (
	tableSize = flag.Int("table-size", 200, "Sine table length")
	wavePath  = flag.String("waveform", "", "Load this waveform instead of generating a sine table")
	outPath   = flag.String("out", "-", "Output CSV path (- for stdout)")
)

func main() {
	flag.Parse()

	src, err := openSource()
	if err != nil {
		log.Fatalf("Failed to build source: %v", err)
	}

	points := make([]source.Point, src.Len())
	for i := range points {
		points[i] = source.Point{Index: i, Amplitude: src.At(i)}
	}

	if *outPath == "-" {
		if err := waveform.WriteCSV(os.Stdout, points); err != nil {
			log.Fatalf("Failed to write CSV: %v", err)
		}
		return
	}

	if err := waveform.Save(*outPath, points); err != nil {
		log.Fatalf("Failed to save CSV: %v", err)
	}
	log.Printf("Wrote %d points to %s", len(points), *outPath)
}

func openSource() (source.Source, error) {
	if *wavePath != "" {
		points, err := waveform.Load(*wavePath)
		if err != nil {
			return nil, err
		}
		return source.NewExternal(points)
	}

	table, err := wavetable.Build(*tableSize)
	if err != nil {
		return nil, err
	}
	return source.NewSynthesized(table)
}
