package formatter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"monthify/internal/models"
	"monthify/internal/tasks"
)

func sampleReport() *tasks.SyncReport {
	return &tasks.SyncReport{
		Bucket:         "Jan '24",
		BucketCreated:  true,
		NewTracks:      3,
		Added:          2,
		AlreadyPresent: 1,
		Watermark:      time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestReportToJSON(t *testing.T) {
	t.Run("compact", func(t *testing.T) {
		out, err := ReportToJSON(sampleReport(), false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(out, &decoded); err != nil {
			t.Fatalf("expected valid JSON, got %v", err)
		}
		if decoded["bucket"] != "Jan '24" {
			t.Errorf("unexpected bucket %v", decoded["bucket"])
		}
		if decoded["added"] != float64(2) {
			t.Errorf("unexpected added %v", decoded["added"])
		}
	})

	t.Run("pretty", func(t *testing.T) {
		out, err := ReportToJSON(sampleReport(), true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(string(out), "\n  ") {
			t.Error("expected indented output")
		}
	})
}

func TestReportToText(t *testing.T) {
	t.Run("completed pass", func(t *testing.T) {
		out := string(ReportToText(sampleReport()))

		for _, want := range []string{
			"Jan '24",
			"(created)",
			"New tracks:      3",
			"Added:           2",
			"Already present: 1",
			"2024-01-15T10:00:00Z",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Failed") {
			t.Error("expected failed line to be omitted when zero")
		}
	})

	t.Run("failures are shown", func(t *testing.T) {
		report := sampleReport()
		report.Failed = 2

		out := string(ReportToText(report))
		if !strings.Contains(out, "Failed:          2") {
			t.Errorf("expected failed line, got:\n%s", out)
		}
	})

	t.Run("empty pass", func(t *testing.T) {
		report := &tasks.SyncReport{Watermark: sampleReport().Watermark}

		out := string(ReportToText(report))
		if !strings.Contains(out, "No new saved tracks.") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if !strings.Contains(out, "2024-01-15T10:00:00Z") {
			t.Errorf("expected the watermark, got:\n%s", out)
		}
	})
}

func TestReportToMarkdown(t *testing.T) {
	t.Run("completed pass", func(t *testing.T) {
		out := string(ReportToMarkdown(sampleReport()))

		if !strings.HasPrefix(out, "## Sync ") {
			t.Errorf("expected a heading, got:\n%s", out)
		}
		for _, want := range []string{"**Bucket**: Jan '24", "**Created**: yes", "**Added**: 2"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("empty pass", func(t *testing.T) {
		out := string(ReportToMarkdown(&tasks.SyncReport{}))
		if !strings.Contains(out, "No new saved tracks.") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}

func TestPlaylistsToText(t *testing.T) {
	playlists := []models.Playlist{
		{ID: "pl1", Name: "Jan '24", TrackCount: 12},
		{ID: "pl2", Name: "Road Trip", TrackCount: 40},
	}

	out := string(PlaylistsToText(playlists))

	if !strings.Contains(out, "Playlists: 2") {
		t.Errorf("expected a count line, got:\n%s", out)
	}
	if !strings.Contains(out, "1. Jan '24 (12 tracks)") {
		t.Errorf("expected a numbered entry, got:\n%s", out)
	}
	if !strings.Contains(out, "2. Road Trip (40 tracks)") {
		t.Errorf("expected a numbered entry, got:\n%s", out)
	}
}

func TestRunsToText(t *testing.T) {
	t.Run("no history", func(t *testing.T) {
		out := string(RunsToText(nil))
		if !strings.Contains(out, "No runs recorded.") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("rows newest first", func(t *testing.T) {
		runs := []*models.SyncRun{
			{
				BucketName:     "Feb '24",
				Added:          5,
				AlreadyPresent: 1,
				StartedAt:      time.Date(2024, time.February, 3, 9, 30, 0, 0, time.UTC),
			},
			{
				BucketName: "Jan '24",
				Added:      2,
				Failed:     1,
				StartedAt:  time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC),
			},
		}

		out := string(RunsToText(runs))
		if !strings.Contains(out, "2024-02-03 09:30") {
			t.Errorf("expected timestamps, got:\n%s", out)
		}
		if !strings.Contains(out, "added=5 present=1 failed=0") {
			t.Errorf("expected counter columns, got:\n%s", out)
		}
		if !strings.Contains(out, "failed=1") {
			t.Errorf("expected the failure counter, got:\n%s", out)
		}
	})
}
