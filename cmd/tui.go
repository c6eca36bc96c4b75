package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rockolahq/rockola/internal/shared"
	"github.com/rockolahq/rockola/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive operator console for one restaurant.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")

	restaurant, err := r.backend.RestaurantBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to load restaurant: %w", err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/rockola-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine := r.engineFor(slug)
	poller := r.pollerFor(engine, "", true)

	model := ui.NewModel(ctx, ui.ModelOpts{
		Engine:         engine,
		Poller:         poller,
		RestaurantName: restaurant.Name,
		Interval:       r.config.Sync.OperatorInterval(),
	})
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
