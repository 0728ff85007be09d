package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// WatermarkRepository stores the per-user watermark: the instant up to
// which saved tracks have already been routed into monthly playlists.
type WatermarkRepository struct {
	db *sql.DB
}

// NewWatermarkRepository creates a WatermarkRepository with the given database connection
func NewWatermarkRepository(db *sql.DB) *WatermarkRepository {
	return &WatermarkRepository{db: db}
}

// Get retrieves the stored watermark for a user.
//
// Returns ErrNotFound when no watermark has been stored yet, letting
// the caller fall back to the engine's default.
func (r *WatermarkRepository) Get(userID string) (time.Time, error) {
	query := `SELECT checked_at FROM watermarks WHERE user_id = ?`

	var checkedAt time.Time
	if err := r.db.QueryRow(query, userID).Scan(&checkedAt); err != nil {
		return time.Time{}, notFound(err)
	}

	return checkedAt.UTC(), nil
}

// Set upserts the watermark for a user.
func (r *WatermarkRepository) Set(userID string, watermark time.Time) error {
	if userID == "" {
		return fmt.Errorf("watermark requires a user id")
	}

	query := `
		INSERT INTO watermarks (user_id, checked_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET checked_at = excluded.checked_at, updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if _, err := r.db.Exec(query, userID, watermark.UTC(), now); err != nil {
		return fmt.Errorf("failed to store watermark: %w", err)
	}

	return nil
}
