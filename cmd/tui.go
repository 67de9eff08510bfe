package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kinohq/kino/internal/shared"
	"github.com/kinohq/kino/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for the movie catalog.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: session store not initialized", shared.ErrMissingConfig)
	}
	if r.movies == nil {
		return fmt.Errorf("%w: catalog client not initialized", shared.ErrMissingConfig)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/kino-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(r.store, r.movies, fileLogger, r.config.API.PageSize)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
