// Package ui implements the interactive terminal view.
//
// A single bubbletea model lists the user's playlists with the month
// buckets highlighted; "s" runs a reconciliation pass in the background
// and the status line reports its outcome, "r" refreshes the listing.
package ui
