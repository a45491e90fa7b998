package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/icastellano/oppanel/internal/engine"
	"github.com/icastellano/oppanel/internal/rangesync"
)

// Run starts the dashboard over an engine and its range synchronizer,
// blocking until the user quits.
func Run(e *engine.Engine, sync *rangesync.Synchronizer) error {
	p := tea.NewProgram(NewModel(e, sync), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
