package models

import (
	"fmt"
	"strings"
	"time"

	"monthify/internal/shared"
)

// AddedAtLayout is the fixed wire format Spotify uses for library
// timestamps. Values are timezone-naive UTC; the trailing Z is literal.
const AddedAtLayout = "2006-01-02T15:04:05Z"

// Track is an immutable record of one saved song.
//
// Constructed once per raw catalog record via [ParseTrack] and never
// mutated; a re-fetch supersedes it.
type Track struct {
	ID      string    // opaque stable identifier from the catalog service
	Name    string    // display name
	AddedAt time.Time // when the track entered the user's library, UTC
}

// ParseTrack validates the raw wire fields of a saved-track record.
//
// Pure, no I/O. Fails wrapping [shared.ErrMalformedRecord] when the id
// or name is missing or added_at does not match [AddedAtLayout].
func ParseTrack(id, name, addedAt string) (Track, error) {
	if strings.TrimSpace(id) == "" {
		return Track{}, fmt.Errorf("%w: missing track id", shared.ErrMalformedRecord)
	}
	if strings.TrimSpace(name) == "" {
		return Track{}, fmt.Errorf("%w: missing track name", shared.ErrMalformedRecord)
	}

	ts, err := time.Parse(AddedAtLayout, addedAt)
	if err != nil {
		return Track{}, fmt.Errorf("%w: unparseable added_at %q: %v", shared.ErrMalformedRecord, addedAt, err)
	}

	return Track{ID: id, Name: name, AddedAt: ts}, nil
}

// Playlist represents a remote playlist's metadata.
type Playlist struct {
	ID         string
	Name       string
	TrackCount int
	Public     bool
}

// SyncRun records the outcome of one completed reconciliation pass for
// the run history.
type SyncRun struct {
	ID             string
	UserID         string
	BucketName     string
	BucketCreated  bool
	NewTracks      int
	Added          int
	AlreadyPresent int
	Failed         int
	Watermark      time.Time
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Validate checks the run has the fields the history table requires.
func (r *SyncRun) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("sync run requires a user id")
	}
	if r.BucketName == "" {
		return fmt.Errorf("sync run requires a bucket name")
	}
	if r.Watermark.IsZero() {
		return fmt.Errorf("sync run requires a watermark")
	}
	return nil
}
