package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"monthify/internal/formatter"
	"monthify/internal/models"
	"monthify/internal/repositories"
	"monthify/internal/shared"
	"monthify/internal/tasks"
)

// Sync runs one reconciliation pass and prints the report.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	engine, userID, db, err := r.buildEngine(ctx, cmd)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	report, err := r.runPass(ctx, engine, userID, db)
	if err != nil {
		return err
	}

	switch cmd.String("format") {
	case "json":
		out, err := formatter.ReportToJSON(report, cmd.Bool("pretty"))
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", out)
	case "markdown":
		return r.writePlain("%s", formatter.ReportToMarkdown(report))
	default:
		return r.writePlain("%s", formatter.ReportToText(report))
	}
}

// Watch runs reconciliation passes on a fixed interval until the
// context is cancelled. Passes are strictly sequential; a failed pass
// is logged and the next tick tries again with state as the aborted
// pass left it.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	engine, userID, db, err := r.buildEngine(ctx, cmd)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	interval := cmd.Duration("interval")
	r.logger.Info("watching saved tracks", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if report, err := r.runPass(ctx, engine, userID, db); err != nil {
			r.logger.Error("pass aborted", "error", err)
		} else if !report.NothingToDo() {
			r.writePlain("%s", formatter.ReportToText(report))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Playlists lists the user's Spotify playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	playlists, err := r.spotify.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.PlaylistsToText(playlists))
}

// Status shows the stored watermark and recent run history.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.ensureAuthenticated(ctx)
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	watermarks := repositories.NewWatermarkRepository(db)
	switch watermark, err := watermarks.Get(userID); {
	case errors.Is(err, repositories.ErrNotFound):
		r.writePlain("Watermark: none stored (defaults to first of current month)\n")
	case err != nil:
		return fmt.Errorf("failed to read watermark: %w", err)
	default:
		r.writePlain("Watermark: %s\n", watermark.Format(time.RFC3339))
	}

	runs, err := repositories.NewRunRepository(db).List(userID, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}

	r.writePlain("\n%s", formatter.RunsToText(runs))
	return nil
}

// buildEngine authenticates, resolves the starting watermark, and
// constructs the sync engine. The returned database handle may be nil
// when persistence is unavailable.
func (r *Runner) buildEngine(ctx context.Context, cmd *cli.Command) (*tasks.MonthlyEngine, string, *sql.DB, error) {
	userID, err := r.ensureAuthenticated(ctx)
	if err != nil {
		return nil, "", nil, err
	}

	db, err := r.openDatabase()
	if err != nil {
		// Passes still work without persistence; the watermark just
		// resets on restart.
		r.logger.Warn("database unavailable, watermark will not persist", "error", err)
		db = nil
	}

	watermark, err := r.resolveWatermark(cmd, db, userID)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, "", nil, err
	}

	engine, err := tasks.NewMonthlyEngine(tasks.EngineOpts{
		Service:    r.spotify,
		Logger:     r.logger,
		Watermark:  watermark,
		NameFormat: r.config.Sync.NameFormat,
		PageSize:   r.config.Sync.PageSize,
	})
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, "", nil, err
	}

	return engine, userID, db, nil
}

// resolveWatermark picks the starting watermark: the --since flag wins,
// then the config override, then the stored value. Zero falls through
// to the engine's first-of-month default.
func (r *Runner) resolveWatermark(cmd *cli.Command, db *sql.DB, userID string) (time.Time, error) {
	if since := cmd.String("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: --since must be RFC 3339: %v", shared.ErrInvalidArgument, err)
		}
		return ts, nil
	}

	if ts, err := r.config.Sync.SinceTime(); err != nil {
		return time.Time{}, err
	} else if !ts.IsZero() {
		return ts, nil
	}

	if db != nil {
		ts, err := repositories.NewWatermarkRepository(db).Get(userID)
		if err == nil {
			return ts, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return time.Time{}, fmt.Errorf("failed to read watermark: %w", err)
		}
	}

	return time.Time{}, nil
}

// runPass executes one pass, streaming progress into the logger, and
// persists the outcome when a database is available.
func (r *Runner) runPass(ctx context.Context, engine *tasks.MonthlyEngine, userID string, db *sql.DB) (*tasks.SyncReport, error) {
	started := time.Now().UTC()

	progress := make(chan tasks.ProgressUpdate, 32)
	drained := make(chan struct{})
	go func() {
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
		close(drained)
	}()

	report, err := engine.Synchronize(ctx, progress)
	close(progress)
	<-drained

	if err != nil {
		return nil, r.diagnose(err)
	}

	if db != nil {
		r.persistPass(db, userID, report, started)
	}

	return report, nil
}

// diagnose maps the failure taxonomy onto distinct user-facing
// diagnostics identifying the stage that failed.
func (r *Runner) diagnose(err error) error {
	switch {
	case errors.Is(err, shared.ErrMalformedRecord):
		r.logger.Error("catalog returned a malformed track record", "error", err)
	case errors.Is(err, shared.ErrFetchFailed):
		r.logger.Error("error when loading saved songs or playlists", "error", err)
	case errors.Is(err, shared.ErrBucketCreate):
		r.logger.Error("error during playlist creation/detection", "error", err)
	default:
		r.logger.Error("sync pass failed", "error", err)
	}
	return err
}

// persistPass stores the advanced watermark and a history row.
// Persistence failures are logged, never fatal to the pass.
func (r *Runner) persistPass(db *sql.DB, userID string, report *tasks.SyncReport, started time.Time) {
	if err := repositories.NewWatermarkRepository(db).Set(userID, report.Watermark); err != nil {
		r.logger.Warn("failed to persist watermark", "error", err)
	}

	if report.NothingToDo() {
		return
	}

	run := &models.SyncRun{
		UserID:         userID,
		BucketName:     report.Bucket,
		BucketCreated:  report.BucketCreated,
		NewTracks:      report.NewTracks,
		Added:          report.Added,
		AlreadyPresent: report.AlreadyPresent,
		Failed:         report.Failed,
		Watermark:      report.Watermark,
		StartedAt:      started,
		FinishedAt:     time.Now().UTC(),
	}
	if err := repositories.NewRunRepository(db).Create(run); err != nil {
		r.logger.Warn("failed to record run", "error", err)
	}
}
