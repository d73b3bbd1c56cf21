package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the console and blocks until the operator quits or the context
// in opts is cancelled.
func Run(opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a data store")
	}
	if opts.Sink == nil {
		return fmt.Errorf("ui requires a sink")
	}

	model := New(opts)
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(model.ctx))
	if _, err := prog.Run(); err != nil && model.ctx.Err() == nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}
