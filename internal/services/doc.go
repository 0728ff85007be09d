// Package services defines the [Service] capability contract the sync
// engine consumes and implements it for the Spotify Web API.
//
// # Service Interface
//
// The engine never talks HTTP directly; it receives a [Service] at
// construction and calls the six catalog capabilities: current user,
// saved-track pages, playlist listing, playlist tracks, playlist
// creation, and track insertion.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token
// refresh through the [oauth2.Client]. Every request waits on a
// [rate.Limiter] so scheduled passes cannot exceed the API quota.
//
// The playlist listing and playlist tracks calls are single-page
// requests. Playlists larger than the page size have incomplete
// membership data; the duplicate check then falls back to the remote
// service's own dedupe behavior.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrMalformedRecord] : response record failed validation
package services
