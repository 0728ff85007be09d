package tasks

import (
	"testing"
	"time"
)

func TestSendProgress(t *testing.T) {
	t.Run("nil channel is ignored", func(t *testing.T) {
		sendProgress(nil, fetchPlaylistsUpdate())
	})

	t.Run("full channel drops instead of blocking", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 1)
		sendProgress(progress, fetchPlaylistsUpdate())

		done := make(chan struct{})
		go func() {
			sendProgress(progress, createBucketUpdate("Jan '24"))
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("sendProgress blocked on a full channel")
		}

		if got := len(progress); got != 1 {
			t.Errorf("expected 1 buffered update, got %d", got)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{FetchLibrary, "fetch_library"},
		{FetchPlaylists, "fetch_playlists"},
		{CreateBucket, "create_bucket"},
		{InsertTracks, "insert_tracks"},
		{Done, "done"},
		{Phase(99), ""},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestDoneUpdate(t *testing.T) {
	t.Run("empty pass", func(t *testing.T) {
		update := doneUpdate(&SyncReport{})
		if update.Message != "No new tracks" {
			t.Errorf("unexpected message %q", update.Message)
		}
	})

	t.Run("completed pass", func(t *testing.T) {
		update := doneUpdate(&SyncReport{NewTracks: 3, Added: 2, Bucket: "Jan '24"})
		if update.Message != "Synced 2 track(s) into Jan '24" {
			t.Errorf("unexpected message %q", update.Message)
		}
		if update.Phase != Done {
			t.Errorf("expected Done phase, got %v", update.Phase)
		}
	})
}
