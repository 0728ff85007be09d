// package formatter renders sync reports and playlist listings for
// terminal output and files (text, JSON, Markdown)
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"monthify/internal/models"
	"monthify/internal/tasks"
)

// ReportToJSON serializes a SyncReport, optionally indented.
func ReportToJSON(report *tasks.SyncReport, pretty bool) ([]byte, error) {
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(report, "", "  ")
	} else {
		out, err = json.Marshal(report)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return out, nil
}

// ReportToText renders a SyncReport as aligned plain text.
func ReportToText(report *tasks.SyncReport) []byte {
	var buf bytes.Buffer

	if report.NothingToDo() {
		buf.WriteString("No new saved tracks.\n")
		fmt.Fprintf(&buf, "Watermark: %s\n", report.Watermark.Format(time.RFC3339))
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "Bucket:          %s", report.Bucket)
	if report.BucketCreated {
		buf.WriteString(" (created)")
	}
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "New tracks:      %d\n", report.NewTracks)
	fmt.Fprintf(&buf, "Added:           %d\n", report.Added)
	fmt.Fprintf(&buf, "Already present: %d\n", report.AlreadyPresent)
	if report.Failed > 0 {
		fmt.Fprintf(&buf, "Failed:          %d\n", report.Failed)
	}
	fmt.Fprintf(&buf, "Watermark:       %s\n", report.Watermark.Format(time.RFC3339))

	return buf.Bytes()
}

// ReportToMarkdown renders a SyncReport as a Markdown summary suitable
// for run logs.
func ReportToMarkdown(report *tasks.SyncReport) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "## Sync %s\n\n", time.Now().UTC().Format("2006-01-02 15:04"))

	if report.NothingToDo() {
		buf.WriteString("No new saved tracks.\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "**Bucket**: %s\n", report.Bucket)
	if report.BucketCreated {
		buf.WriteString("**Created**: yes\n")
	}
	fmt.Fprintf(&buf, "**New**: %d | **Added**: %d | **Present**: %d | **Failed**: %d\n",
		report.NewTracks, report.Added, report.AlreadyPresent, report.Failed)
	fmt.Fprintf(&buf, "**Watermark**: %s\n", report.Watermark.Format(time.RFC3339))

	return buf.Bytes()
}

// PlaylistsToText renders a playlist listing as numbered plain text.
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlists: %d\n\n", len(playlists))
	for i, playlist := range playlists {
		fmt.Fprintf(&buf, "%d. %s (%d tracks)\n", i+1, playlist.Name, playlist.TrackCount)
	}

	return buf.Bytes()
}

// RunsToText renders run history rows, newest first.
func RunsToText(runs []*models.SyncRun) []byte {
	var buf bytes.Buffer

	if len(runs) == 0 {
		buf.WriteString("No runs recorded.\n")
		return buf.Bytes()
	}

	for _, run := range runs {
		fmt.Fprintf(&buf, "%s  %-10s added=%d present=%d failed=%d\n",
			run.StartedAt.Format("2006-01-02 15:04"),
			run.BucketName,
			run.Added,
			run.AlreadyPresent,
			run.Failed,
		)
	}

	return buf.Bytes()
}
