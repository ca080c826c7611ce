// ABOUTME: Audio output package for callback-driven playback
// ABOUTME: Provides Backend and Stream interfaces plus device and file backends
// Package output opens audio streams that pull samples from a render callback.
//
// Supported backends are malgo (miniaudio), oto, PortAudio (build tag
// portaudio), a null backend and a WAV file recorder. The null and WAV
// backends are FrameBackends: OpenFrameStream takes a callback that reports
// how many frames it rendered, and the WAV file keeps only those.
//
// Example:
//
//	backend := output.NewMalgo()
//	stream, err := backend.OpenStream(audio.DefaultStreamConfig(), renderer.Fill)
//	err = stream.Start()
//	// ...
//	err = stream.Stop()
//	err = stream.Close()
package output
