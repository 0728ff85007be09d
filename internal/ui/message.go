package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"monthify/internal/models"
	"monthify/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgSyncDone
)

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{
		kind: MsgPlaylistsFetched,
		data: struct {
			playlists []models.Playlist
			err       error
		}{playlists, err},
	}
}

// syncDoneMsg is the constructor for [MsgSyncDone]
func syncDoneMsg(report *tasks.SyncReport, err error) Msg {
	return Msg{
		kind: MsgSyncDone,
		data: struct {
			report *tasks.SyncReport
			err    error
		}{report, err},
	}
}
