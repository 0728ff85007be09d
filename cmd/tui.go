package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"monthify/internal/repositories"
	"monthify/internal/shared"
	"monthify/internal/tasks"
	"monthify/internal/ui"
)

// TUI launches the interactive playlist browser. Logs are redirected
// to a file while bubbletea owns the terminal.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.ensureAuthenticated(ctx)
	if err != nil {
		return err
	}

	fileLogger, err := shared.NewFileLogger("monthify.log")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	r.SetLogger(fileLogger)

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("database unavailable, watermark will not persist", "error", err)
		db = nil
	} else {
		defer db.Close()
	}

	watermark, err := r.resolveWatermark(cmd, db, userID)
	if err != nil {
		return err
	}

	engine, err := tasks.NewMonthlyEngine(tasks.EngineOpts{
		Service:    r.spotify,
		Logger:     r.logger,
		Watermark:  watermark,
		NameFormat: r.config.Sync.NameFormat,
		PageSize:   r.config.Sync.PageSize,
	})
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.spotify, engine, r.config.Sync.NameFormat)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run interface: %w", err)
	}

	if db != nil {
		if err := repositories.NewWatermarkRepository(db).Set(userID, engine.Watermark()); err != nil {
			r.logger.Warn("failed to persist watermark", "error", err)
		}
	}

	return nil
}
