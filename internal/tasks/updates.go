package tasks

import (
	"fmt"

	"monthify/internal/models"
)

// ProgressUpdate represents a progress event during a reconciliation pass.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pass phase
	Step    int    // Current step number within the phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Pass phase enumeration
type Phase int

const (
	FetchLibrary Phase = iota
	FetchPlaylists
	CreateBucket
	InsertTracks
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchLibrary:
		return "fetch_library"
	case FetchPlaylists:
		return "fetch_playlists"
	case CreateBucket:
		return "create_bucket"
	case InsertTracks:
		return "insert_tracks"
	case Done:
		return "done"
	default:
		return ""
	}
}

// sendProgress sends an update without blocking; a full or nil channel
// drops the update rather than stalling the pass.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchLibraryUpdate(offset, pageSize int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    offset/pageSize + 1,
		Message: fmt.Sprintf("Fetching saved tracks (offset %d)...", offset),
	}
}

func fetchPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: "Fetching playlists...",
	}
}

func createBucketUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateBucket,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func insertTrackUpdate(step, total int, track models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, track.Name),
		Data:    track,
	}
}

func doneUpdate(report *SyncReport) ProgressUpdate {
	message := "No new tracks"
	if !report.NothingToDo() {
		message = fmt.Sprintf("Synced %d track(s) into %s", report.Added, report.Bucket)
	}
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: message,
		Data:    report,
	}
}
