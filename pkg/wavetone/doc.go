// ABOUTME: Package wavetone provides a high-level wavetable player
// ABOUTME: Wires the sine table, oscillators, renderer and an output backend
// Package wavetone plays a wavetable oscillator on an audio backend.
//
// Example:
//
//	player, err := wavetone.NewPlayer(wavetone.PlayerConfig{
//		Layout: synth.PerChannel,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = player.Play(ctx, 5*time.Second)
package wavetone
