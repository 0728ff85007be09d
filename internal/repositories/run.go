package repositories

import (
	"database/sql"
	"fmt"

	"monthify/internal/models"
	"monthify/internal/shared"
)

// RunRepository stores the outcome of each reconciliation pass.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a completed run with a generated ID.
func (r *RunRepository) Create(run *models.SyncRun) error {
	run.ID = shared.GenerateID()

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (id, user_id, bucket_name, bucket_created, new_tracks, added, already_present, failed, watermark, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.UserID,
		run.BucketName,
		run.BucketCreated,
		run.NewTracks,
		run.Added,
		run.AlreadyPresent,
		run.Failed,
		run.Watermark.UTC(),
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

// Latest retrieves the most recently started run for a user.
func (r *RunRepository) Latest(userID string) (*models.SyncRun, error) {
	query := `
		SELECT id, user_id, bucket_name, bucket_created, new_tracks, added, already_present, failed, watermark, started_at, finished_at
		FROM sync_runs
		WHERE user_id = ?
		ORDER BY started_at DESC
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRow(query, userID))
}

// List retrieves up to limit runs for a user, newest first.
func (r *RunRepository) List(userID string, limit int) ([]*models.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, user_id, bucket_name, bucket_created, new_tracks, added, already_present, failed, watermark, started_at, finished_at
		FROM sync_runs
		WHERE user_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *RunRepository) scanOne(row *sql.Row) (*models.SyncRun, error) {
	run, err := scanRun(row)
	if err != nil {
		return nil, notFound(err)
	}
	return run, nil
}

func scanRun(s scanner) (*models.SyncRun, error) {
	var run models.SyncRun
	err := s.Scan(
		&run.ID,
		&run.UserID,
		&run.BucketName,
		&run.BucketCreated,
		&run.NewTracks,
		&run.Added,
		&run.AlreadyPresent,
		&run.Failed,
		&run.Watermark,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Watermark = run.Watermark.UTC()
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return &run, nil
}
