// package services defines the capability contract the sync engine
// consumes for talking to a music catalog service
package services

import (
	"context"

	"monthify/internal/models"
)

// SavedTrackPage is one page of the user's saved tracks, newest first.
type SavedTrackPage struct {
	Tracks  []models.Track // parsed records in service order
	Total   int            // total saved tracks reported by the service
	HasMore bool           // whether another page follows this one
}

// Service defines the remote operations the reconciler needs from a
// music catalog provider. The exact transport is the implementation's
// concern; the engine only sees these capabilities.
type Service interface {
	// Authenticate performs OAuth or token authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUserID returns the authenticated user's id.
	CurrentUserID(ctx context.Context) (string, error)

	// SavedTracks retrieves one page of the user's saved tracks.
	// Pages are ordered newest first by the service.
	SavedTracks(ctx context.Context, limit, offset int) (*SavedTrackPage, error)

	// Playlists retrieves the user's playlist listing (single page).
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// PlaylistTracks retrieves the tracks of a playlist (single page).
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// CreatePlaylist creates a playlist owned by userID with the given name.
	CreatePlaylist(ctx context.Context, userID, name string) (*models.Playlist, error)

	// AddTracks appends the given track ids to a playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the provider name (e.g. "Spotify")
	Name() string
}
