// ABOUTME: CSV waveform reader and writer
// ABOUTME: Rows are "index,amplitude" or a bare amplitude per line
package waveform

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Resonate-Protocol/wavetone/pkg/source"
)

// loadCSV accepts an optional header row and '#' comments. A row with one
// field is an amplitude whose index is its position.
func loadCSV(path string) ([]source.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses CSV waveform data from r
func ReadCSV(r io.Reader) ([]source.Point, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []source.Point
	for row := 0; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		p, err := parseRecord(record, len(points))
		if err != nil {
			if row == 0 && isHeader(record) {
				continue
			}
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, p)
	}

	return points, nil
}

func parseRecord(record []string, position int) (source.Point, error) {
	switch len(record) {
	case 1:
		a, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 32)
		if err != nil {
			return source.Point{}, fmt.Errorf("invalid amplitude %q", record[0])
		}
		return source.Point{Index: position, Amplitude: float32(a)}, nil
	case 2:
		i, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return source.Point{}, fmt.Errorf("invalid index %q", record[0])
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 32)
		if err != nil {
			return source.Point{}, fmt.Errorf("invalid amplitude %q", record[1])
		}
		return source.Point{Index: i, Amplitude: float32(a)}, nil
	default:
		return source.Point{}, fmt.Errorf("expected 1 or 2 fields, got %d", len(record))
	}
}

func isHeader(record []string) bool {
	for _, field := range record {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err == nil {
			return false
		}
	}
	return true
}

// Save writes points to path as "index,amplitude" CSV with a header
func Save(path string, points []source.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	if err := WriteCSV(f, points); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes points to w as "index,amplitude" CSV with a header
func WriteCSV(w io.Writer, points []source.Point) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"index", "amplitude"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, p := range points {
		record := []string{
			strconv.Itoa(p.Index),
			strconv.FormatFloat(float64(p.Amplitude), 'g', -1, 32),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
