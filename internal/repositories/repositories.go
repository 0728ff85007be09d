// package repositories provides the SQLite persistence layer.
//
// The sync engine itself keeps no durable state; these repositories
// exist so the Runner can carry the watermark across process restarts
// and keep a history of passes. [WatermarkRepository] stores the
// per-user watermark, [RunRepository] the pass outcomes.
package repositories

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("record not found")

// notFound converts sql.ErrNoRows into ErrNotFound, passing other
// errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
