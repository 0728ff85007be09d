// package tasks implements the reconciliation of saved tracks into
// month-named playlists.
//
// The core abstraction is SyncEngine: one Synchronize call is a full
// reconciliation pass. Operations emit progress updates via channels
// for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"

	"monthify/internal/models"
	"monthify/internal/services"
	"monthify/internal/shared"
)

// DefaultNameFormat names buckets like "Jan '24".
const DefaultNameFormat = "%b '%y"

// DefaultPageSize matches the service's saved-track page cap.
const DefaultPageSize = 50

// SyncReport summarizes one completed reconciliation pass.
type SyncReport struct {
	Bucket         string    `json:"bucket"`          // target bucket name, empty when nothing to do
	BucketCreated  bool      `json:"bucket_created"`  // whether the bucket was created this pass
	NewTracks      int       `json:"new_tracks"`      // tracks past the watermark
	Added          int       `json:"added"`           // remote insertions performed
	AlreadyPresent int       `json:"already_present"` // idempotent no-ops
	Failed         int       `json:"failed"`          // tracks not inserted (load or add failures)
	Watermark      time.Time `json:"watermark"`       // watermark after the pass
}

// NothingToDo reports whether the pass found no new tracks.
func (r *SyncReport) NothingToDo() bool {
	return r.NewTracks == 0
}

// SyncEngine defines one operation: a full reconciliation pass, safe to
// call repeatedly but never concurrently.
type SyncEngine interface {
	Synchronize(ctx context.Context, progress chan<- ProgressUpdate) (*SyncReport, error)
}

// MonthlyEngine implements [SyncEngine] against a [services.Service].
//
// All state is process-local: the watermark, the page-aggregated saved
// list, and the bucket collection live only for the engine's lifetime.
// Callers persist the watermark externally if they need it to survive
// restarts. Not safe for concurrent Synchronize calls.
type MonthlyEngine struct {
	svc    services.Service
	logger *log.Logger

	nameFormat *strftime.Strftime
	pageSize   int

	userID    string
	watermark time.Time
	saved     []models.Track
	buckets   []*Bucket
}

// EngineOpts configures a [MonthlyEngine].
type EngineOpts struct {
	Service    services.Service
	Logger     *log.Logger
	Watermark  time.Time // zero means the first instant of the current month, UTC
	NameFormat string    // strftime pattern, defaults to [DefaultNameFormat]
	PageSize   int       // saved-track page size, defaults to [DefaultPageSize]
}

// NewMonthlyEngine creates an engine with explicit dependencies.
func NewMonthlyEngine(opts EngineOpts) (*MonthlyEngine, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("%w: catalog service is required", shared.ErrServiceUnavailable)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.NameFormat == "" {
		opts.NameFormat = DefaultNameFormat
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Watermark.IsZero() {
		opts.Watermark = MonthStart(time.Now().UTC())
	}

	pattern, err := strftime.New(opts.NameFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: bad name format %q: %v", shared.ErrInvalidArgument, opts.NameFormat, err)
	}

	return &MonthlyEngine{
		svc:        opts.Service,
		logger:     opts.Logger,
		nameFormat: pattern,
		pageSize:   opts.PageSize,
		watermark:  opts.Watermark,
	}, nil
}

// MonthStart returns the first instant of t's month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Watermark returns the current watermark; tracks saved at or before it
// are considered already processed.
func (e *MonthlyEngine) Watermark() time.Time {
	return e.watermark
}

// UserID returns the cached owner id, empty until a pass has needed it.
func (e *MonthlyEngine) UserID() string {
	return e.userID
}

// Synchronize performs one full reconciliation pass:
// fetch saved tracks, filter by watermark, route every new track into
// the month bucket named after the newest one, then advance the
// watermark.
//
// Pre-routing failures (fetch, listing, creation) return a nil report
// and an error wrapping the matching sentinel, leaving the watermark
// untouched. Once routing reaches insertion, the pass always completes
// and the watermark always advances; per-track failures are counted in
// the report instead of aborting. At-least-once, not exactly-once.
func (e *MonthlyEngine) Synchronize(ctx context.Context, progress chan<- ProgressUpdate) (*SyncReport, error) {
	if err := e.fetchSavedTracks(ctx, progress); err != nil {
		return nil, err
	}

	newTracks := e.newSince(e.watermark)
	report := &SyncReport{NewTracks: len(newTracks), Watermark: e.watermark}

	if len(newTracks) == 0 {
		e.logger.Info("no new saved tracks", "watermark", e.watermark)
		sendProgress(progress, doneUpdate(report))
		return report, nil
	}

	if err := e.fetchBuckets(ctx, progress); err != nil {
		return nil, err
	}

	// Every new track goes into the bucket named after the newest one,
	// even across a month boundary.
	name := e.nameFormat.FormatString(newTracks[0].AddedAt)
	report.Bucket = name

	bucket, created, err := e.findOrCreateBucket(ctx, progress, name)
	if err != nil {
		return nil, err
	}
	report.BucketCreated = created

	e.insertTracks(ctx, progress, bucket, newTracks, report)

	// The watermark advances regardless of individual insertion
	// outcomes; failed tracks will not be retried on the next pass.
	e.watermark = newTracks[0].AddedAt
	report.Watermark = e.watermark

	e.logger.Info("pass complete",
		"bucket", name,
		"added", report.Added,
		"present", report.AlreadyPresent,
		"failed", report.Failed,
		"watermark", e.watermark,
	)
	sendProgress(progress, doneUpdate(report))

	return report, nil
}

// fetchSavedTracks accumulates saved-track pages into e.saved.
//
// The service returns tracks newest first; fetching stops as soon as a
// page's oldest entry is at or before the watermark, when a page comes
// back empty, or when the service reports no further pages. The
// newest-first ordering is a documented precondition of the early stop.
func (e *MonthlyEngine) fetchSavedTracks(ctx context.Context, progress chan<- ProgressUpdate) error {
	e.saved = nil
	offset := 0

	for {
		sendProgress(progress, fetchLibraryUpdate(offset, e.pageSize))

		page, err := e.svc.SavedTracks(ctx, e.pageSize, offset)
		if err != nil {
			return fmt.Errorf("%w: saved tracks at offset %d: %v", shared.ErrFetchFailed, offset, err)
		}

		e.saved = append(e.saved, page.Tracks...)

		if len(page.Tracks) == 0 || !page.HasMore {
			return nil
		}

		oldest := page.Tracks[len(page.Tracks)-1]
		if !oldest.AddedAt.After(e.watermark) {
			return nil
		}

		// Advance by what actually arrived: the service may clamp the
		// requested page size or return short pages, and skipping the
		// difference would lose tracks for good once the watermark moves.
		offset += len(page.Tracks)
	}
}

// newSince filters the fetched library to tracks added strictly after
// the watermark, preserving the service's newest-first order.
func (e *MonthlyEngine) newSince(watermark time.Time) []models.Track {
	var fresh []models.Track
	for _, track := range e.saved {
		if track.AddedAt.After(watermark) {
			fresh = append(fresh, track)
		}
	}
	return fresh
}

// fetchBuckets loads the remote playlist listing into the bucket collection.
//
// An empty listing is treated as a fetch failure: the listing call is
// the pass's proof that playlist data is reachable, and an account with
// zero playlists is indistinguishable from a broken response here.
func (e *MonthlyEngine) fetchBuckets(ctx context.Context, progress chan<- ProgressUpdate) error {
	sendProgress(progress, fetchPlaylistsUpdate())

	playlists, err := e.svc.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("%w: playlist listing: %v", shared.ErrFetchFailed, err)
	}
	if len(playlists) == 0 {
		return fmt.Errorf("%w: playlist listing came back empty", shared.ErrFetchFailed)
	}

	e.buckets = make([]*Bucket, 0, len(playlists))
	for _, playlist := range playlists {
		e.buckets = append(e.buckets, NewBucket(playlist, e.svc, e.logger))
	}

	return nil
}

// findOrCreateBucket searches the loaded buckets by exact name, creating
// the playlist remotely on a miss and mirroring it locally.
func (e *MonthlyEngine) findOrCreateBucket(ctx context.Context, progress chan<- ProgressUpdate, name string) (*Bucket, bool, error) {
	for _, bucket := range e.buckets {
		if bucket.Name() == name {
			return bucket, false, nil
		}
	}

	sendProgress(progress, createBucketUpdate(name))
	e.logger.Info("creating playlist", "name", name)

	if e.userID == "" {
		userID, err := e.svc.CurrentUserID(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("%w: resolving owner: %v", shared.ErrBucketCreate, err)
		}
		e.userID = userID
	}

	playlist, err := e.svc.CreatePlaylist(ctx, e.userID, name)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %q: %v", shared.ErrBucketCreate, name, err)
	}

	bucket := NewBucket(*playlist, e.svc, e.logger)
	// A brand-new playlist has no members to load.
	bucket.markLoaded()
	e.buckets = append(e.buckets, bucket)

	return bucket, true, nil
}

// insertTracks routes newTracks into bucket one by one.
//
// A membership load failure skips the remaining tracks of the pass;
// individual add failures are counted and logged but never abort.
func (e *MonthlyEngine) insertTracks(ctx context.Context, progress chan<- ProgressUpdate, bucket *Bucket, newTracks []models.Track, report *SyncReport) {
	for i, track := range newTracks {
		sendProgress(progress, insertTrackUpdate(i+1, len(newTracks), track))

		added, err := bucket.EnsureTrack(ctx, track)
		switch {
		case errors.Is(err, shared.ErrBucketLoad):
			e.logger.Error("bucket membership unavailable, skipping remaining tracks",
				"bucket", bucket.Name(), "skipped", len(newTracks)-i, "error", err)
			report.Failed += len(newTracks) - i
			return
		case err != nil:
			e.logger.Error("failed to add track", "track", track.Name, "error", err)
			report.Failed++
		case added:
			report.Added++
		default:
			report.AlreadyPresent++
		}
	}
}
