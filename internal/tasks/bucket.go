package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"monthify/internal/models"
	"monthify/internal/services"
	"monthify/internal/shared"
)

// Bucket wraps one remote month playlist and its lazily loaded
// membership set.
//
// The member set is nil until the first EnsureTrack call needs it and,
// once loaded, is never reloaded within a run: it reflects the remote
// playlist's contents at load time, so staleness is bounded by one
// pass. Playlists longer than the service's page size load incomplete
// membership; duplicate adds past that point rely on the remote
// service's own dedupe.
type Bucket struct {
	id      string
	name    string
	svc     services.Service
	logger  *log.Logger
	members map[string]struct{}
}

// NewBucket mirrors a remote playlist as an unloaded bucket.
func NewBucket(playlist models.Playlist, svc services.Service, logger *log.Logger) *Bucket {
	return &Bucket{
		id:     playlist.ID,
		name:   playlist.Name,
		svc:    svc,
		logger: logger,
	}
}

// ID returns the remote playlist id.
func (b *Bucket) ID() string { return b.id }

// Name returns the playlist name, e.g. "Jan '24".
func (b *Bucket) Name() string { return b.name }

// Loaded reports whether the membership set has been fetched.
func (b *Bucket) Loaded() bool { return b.members != nil }

// EnsureTrack makes the track a member of the bucket, idempotently.
//
// Loads membership on first use; a load failure wraps
// [shared.ErrBucketLoad] and performs no remote mutation. A track
// already in the member set is a no-op. Otherwise one remote add call
// is issued and, on success, the id joins the in-memory set so repeat
// calls within the run skip the round trip.
func (b *Bucket) EnsureTrack(ctx context.Context, track models.Track) (bool, error) {
	if !b.Loaded() {
		if err := b.loadMembers(ctx); err != nil {
			return false, err
		}
	}

	if _, ok := b.members[track.ID]; ok {
		b.logger.Info("already present", "track", track.Name, "bucket", b.name)
		return false, nil
	}

	if err := b.svc.AddTracks(ctx, b.id, []string{track.ID}); err != nil {
		return false, fmt.Errorf("adding %q to %q: %w", track.Name, b.name, err)
	}

	b.members[track.ID] = struct{}{}
	b.logger.Info("added", "track", track.Name, "bucket", b.name)
	return true, nil
}

// loadMembers fetches the playlist's tracks in one page request and
// builds the membership set. No retry.
func (b *Bucket) loadMembers(ctx context.Context) error {
	tracks, err := b.svc.PlaylistTracks(ctx, b.id)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", shared.ErrBucketLoad, b.name, err)
	}

	members := make(map[string]struct{}, len(tracks))
	for _, track := range tracks {
		members[track.ID] = struct{}{}
	}
	b.members = members

	return nil
}

// markLoaded installs an empty membership set, used for buckets created
// this pass whose remote playlist is necessarily empty.
func (b *Bucket) markLoaded() {
	if b.members == nil {
		b.members = make(map[string]struct{})
	}
}
