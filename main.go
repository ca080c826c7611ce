// ABOUTME: Entry point for the wavetone player
// ABOUTME: Parses CLI flags, builds the player and runs one stream
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/wavetone/internal/config"
	"github.com/Resonate-Protocol/wavetone/internal/ui"
	"github.com/Resonate-Protocol/wavetone/internal/version"
	"github.com/Resonate-Protocol/wavetone/pkg/audio/output"
	"github.com/Resonate-Protocol/wavetone/pkg/source"
	"github.com/Resonate-Protocol/wavetone/pkg/waveform"
	"github.com/Resonate-Protocol/wavetone/pkg/wavetone"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	seconds := flag.Float64("seconds", cfg.Duration.Seconds(), "Playback duration in seconds")
	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "Audio backend ("+strings.Join(output.Names(), "|")+")")
	flag.IntVar(&cfg.Channels, "channels", cfg.Channels, "Output channel count")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Sample rate in Hz")
	flag.IntVar(&cfg.FramesPerBuffer, "frames", cfg.FramesPerBuffer, "Frames per buffer")
	flag.Float64Var(&cfg.Frequency, "frequency", cfg.Frequency, "Oscillator frequency in Hz (0: derived from table size)")
	flag.IntVar(&cfg.TableSize, "table-size", cfg.TableSize, "Sine table length")
	flag.IntVar(&cfg.LeftStep, "left-step", cfg.LeftStep, "Base table step for per-channel layout")
	flag.IntVar(&cfg.RightMultiplier, "right-multiplier", cfg.RightMultiplier, "Step multiplier for the right channel")
	flag.StringVar(&cfg.Layout, "layout", cfg.Layout, "Voice layout (shared|per-channel)")
	flag.StringVar(&cfg.Waveform, "waveform", cfg.Waveform, "External waveform file ("+strings.Join(waveform.Extensions(), ", ")+")")
	flag.StringVar(&cfg.OutputFile, "out", cfg.OutputFile, "Output file for the wav backend")
	flag.BoolVar(&cfg.Realtime, "realtime", cfg.Realtime, "Pace the null and wav backends at the sample rate")
	flag.BoolVar(&cfg.NoTUI, "no-tui", cfg.NoTUI, "Disable TUI, use streaming logs instead")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path")
	flag.Parse()

	cfg.Duration = time.Duration(*seconds * float64(time.Second))

	useTUI := !cfg.NoTUI

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	if err := run(cfg, useTUI); err != nil {
		log.Printf("Playback failed: %v", err)
		_ = f.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, useTUI bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Printf("Starting %s: backend=%s, %dHz, %d channels, %d frames/buffer",
		version.String(), cfg.Backend, cfg.SampleRate, cfg.Channels, cfg.FramesPerBuffer)

	backend, err := output.New(cfg.Backend, output.Options{
		OutputFile: cfg.OutputFile,
		Realtime:   cfg.Realtime,
	})
	if err != nil {
		return err
	}

	var points []source.Point
	if cfg.Waveform != "" {
		points, err = waveform.Load(cfg.Waveform)
		if err != nil {
			return err
		}
	}

	layout, err := cfg.SynthLayout()
	if err != nil {
		return err
	}

	// Offline rendering stops itself after the requested frame count
	duration := cfg.Duration
	var frameLimit int64
	if cfg.Backend == "wav" && !cfg.Realtime {
		frameLimit = cfg.FrameLimit()
		duration = 0
	}

	// TUI setup
	var tuiProg *tea.Program
	var ctrl *ui.Control
	tuiDone := make(chan struct{})

	if useTUI {
		ctrl = ui.NewControl()
		tuiProg = ui.Run(ctrl, cfg.Duration)
		go func() {
			defer close(tuiDone)
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	} else {
		close(tuiDone)
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	player, err := wavetone.NewPlayer(wavetone.PlayerConfig{
		Stream:      cfg.StreamConfig(),
		Backend:     backend,
		Layout:      layout,
		TableSize:   cfg.TableSize,
		Points:      points,
		Frequency:   cfg.Frequency,
		Step:        cfg.LeftStep,
		Multipliers: cfg.Multipliers(),
		FrameLimit:  frameLimit,
		OnStateChange: func(state wavetone.PlayerState) {
			updateTUI(ui.StatusMsg{
				State:      state.State,
				Backend:    state.Backend,
				StreamID:   state.StreamID,
				SampleRate: state.SampleRate,
				Channels:   state.Channels,
				Layout:     state.Layout,
				SourceLen:  state.SourceLen,
			})
		},
	})
	if err != nil {
		if tuiProg != nil {
			tuiProg.Quit()
			<-tuiDone
		}
		return err
	}

	// Handle shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if ctrl != nil {
		go func() {
			select {
			case <-ctrl.Quit:
				log.Printf("Received quit signal from TUI")
				player.Stop()
			case <-ctx.Done():
			}
		}()
	}

	statsCtx, cancelStats := context.WithCancel(ctx)
	if tuiProg != nil {
		go statsUpdateLoop(statsCtx, player, updateTUI)
	}

	if !useTUI {
		log.Printf("Play for %v.", cfg.Duration)
	}

	playErr := player.Play(ctx, duration)
	cancelStats()

	if tuiProg != nil {
		tuiProg.Quit()
	}
	<-tuiDone

	if playErr != nil {
		return playErr
	}

	log.Printf("Player stopped")
	return nil
}

// statsUpdateLoop periodically updates TUI with render statistics
func statsUpdateLoop(ctx context.Context, player *wavetone.Player, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := player.Stats()
			updateTUI(ui.StatusMsg{
				Elapsed: time.Since(start),
				Buffers: stats.Buffers,
				Frames:  stats.Frames,
				Faults:  stats.Faults,
			})
		}
	}
}
