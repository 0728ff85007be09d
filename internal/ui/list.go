package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"monthify/internal/models"
)

var _ list.Item = playlistItem{}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
	isBucket bool
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string {
	if i.isBucket {
		return fmt.Sprintf("%s ●", i.playlist.Name)
	}
	return i.playlist.Name
}
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d tracks", i.playlist.TrackCount)
}
