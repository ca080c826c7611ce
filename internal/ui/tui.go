// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the playback view
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// QuitMsg signals that the user asked to stop playback
type QuitMsg struct{}

// Control carries requests from the TUI back to the player
type Control struct {
	Quit chan QuitMsg
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Quit: make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model for a run of the given length. A zero
// total means the run ends on its own.
func NewModel(ctrl *Control, total time.Duration) Model {
	return Model{
		state:   "idle",
		total:   total,
		control: ctrl,
	}
}

// Run creates the TUI program; the caller runs it
func Run(ctrl *Control, total time.Duration) *tea.Program {
	return tea.NewProgram(NewModel(ctrl, total), tea.WithAltScreen())
}
