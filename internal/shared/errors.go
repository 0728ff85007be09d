package shared

import "fmt"

var (
	// Sync failure taxonomy. Each sentinel identifies the stage of a
	// reconciliation pass that failed; callers branch with errors.Is.
	ErrMalformedRecord = fmt.Errorf("malformed track record")
	ErrFetchFailed     = fmt.Errorf("library fetch failed")
	ErrBucketLoad      = fmt.Errorf("bucket load failed")
	ErrBucketCreate    = fmt.Errorf("playlist creation failed")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
