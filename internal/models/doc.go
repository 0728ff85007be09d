// Package models defines the domain entities for the monthly playlist reconciler.
//
// The package contains two categories of types:
//
// 1. Catalog records parsed from the remote service:
//   - [Track] : immutable saved-song record with its library timestamp
//   - [Playlist] : playlist metadata used for bucket discovery
//
// 2. Persistent entities stored in SQLite by internal/repositories:
//   - [SyncRun] : outcome of one reconciliation pass
//
// [ParseTrack] is the only constructor for Track and enforces the wire
// invariants: non-empty id, non-empty name, added_at in [AddedAtLayout].
package models
