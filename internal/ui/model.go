// ABOUTME: Bubbletea model for the playback TUI
// ABOUTME: Defines playback state and update logic
package ui

import (
	"fmt"
	"time"

	"github.com/Resonate-Protocol/wavetone/internal/version"
	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Stream
	backend    string
	streamID   string
	sampleRate int
	channels   int
	layout     string
	sourceLen  int

	// Playback
	state   string
	elapsed time.Duration
	total   time.Duration

	// Stats
	buffers int64
	frames  int64
	faults  int64

	// Debug
	showDebug bool

	control *Control

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderStreamInfo()
	s += m.renderProgress()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders playback state
func (m Model) renderHeader() string {
	title := fmt.Sprintf("%s %s", version.Product, version.Version)
	return fmt.Sprintf(`┌─ %-51s┐
│ Status:  %-44s │
├──────────────────────────────────────────────────────┤
`, title+" ", m.state)
}

// renderStreamInfo renders stream format
func (m Model) renderStreamInfo() string {
	if m.sampleRate == 0 {
		return "│ No stream                                            │\n"
	}

	return fmt.Sprintf("│ Backend: %-44s │\n"+
		"│ Format:  %-44s │\n"+
		"│ Voices:  %-44s │\n",
		m.backend,
		fmt.Sprintf("%dHz %s float32", m.sampleRate, channelName(m.channels)),
		fmt.Sprintf("%s, %d-sample source", m.layout, m.sourceLen))
}

// renderProgress renders elapsed time against the total
func (m Model) renderProgress() string {
	bar := renderBar(m.elapsed, m.total, 30)
	return fmt.Sprintf("│                                                      │\n"+
		"│ [%s] %-21s │\n",
		bar, fmt.Sprintf("%.1fs / %.1fs", m.elapsed.Seconds(), m.total.Seconds()))
}

// renderStats renders render counters
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Stats:   %-44s │
│                                                      │
`, fmt.Sprintf("Buffers: %d  Frames: %d  Faults: %d", m.buffers, m.frames, m.faults))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ d:Debug  q:Stop                                      │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Stream: %-42s │
`, truncate(m.streamID, 42))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.control != nil {
			select {
			case m.control.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Backend != "" {
		m.backend = msg.Backend
	}
	if msg.StreamID != "" {
		m.streamID = msg.StreamID
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.layout = msg.Layout
		m.sourceLen = msg.SourceLen
	}
	if msg.Elapsed != 0 {
		m.elapsed = msg.Elapsed
	}
	if msg.Buffers != 0 {
		m.buffers = msg.Buffers
		m.frames = msg.Frames
		m.faults = msg.Faults
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	State      string
	Backend    string
	StreamID   string
	SampleRate int
	Channels   int
	Layout     string
	SourceLen  int
	Elapsed    time.Duration
	Buffers    int64
	Frames     int64
	Faults     int64
}

// Utility functions
func renderBar(value, max time.Duration, width int) string {
	filled := 0
	if max > 0 {
		filled = int(int64(value) * int64(width) / int64(max))
	}
	if filled > width {
		filled = width
	}
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
