package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")

	// Download errors
	ErrTrackUnavailable      = fmt.Errorf("track unavailable")
	ErrDownloaderUnavailable = fmt.Errorf("downloader unavailable")

	// History errors
	ErrHistoryUnreadable = fmt.Errorf("history unreadable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
