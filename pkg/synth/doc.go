// ABOUTME: Synth package documentation
// ABOUTME: Describes the real-time renderer and its builder
// Package synth contains the real-time buffer filler.
//
// A Renderer owns one sample source and the voices that read it. Backends
// call Fill from their audio thread; Fill advances every voice once per
// frame and writes interleaved samples without allocating or locking.
//
// Renderers are created with a Builder, which validates the layout and then
// gives up its references:
//
//	r, err := synth.NewBuilder(2, synth.PerChannel).
//	    Source(src).
//	    Voice(left).
//	    Voice(right).
//	    Build()
//	stream, err := backend.OpenStream(cfg, r.Fill)
package synth
