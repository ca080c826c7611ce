// ABOUTME: Waveform loading package
// ABOUTME: Reads external waveform cycles for the sample source
// Package waveform loads one-cycle waveforms from disk.
//
// Supported formats are CSV, WAV, MP3, FLAC and Ogg Opus. The result feeds
// source.NewExternal before a stream starts.
//
// Example:
//
//	points, err := waveform.Load("saw.csv")
//	src, err := source.NewExternal(points)
package waveform
