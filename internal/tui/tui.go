package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iamruinous/meshcore-go/pkg/meshcore/client"
)

// Run starts the TUI against an already-connected client.
func Run(c *client.Client) error {
	model := New(c)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}
