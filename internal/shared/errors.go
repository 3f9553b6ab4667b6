package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Data boundary errors
	ErrMalformedInput = fmt.Errorf("malformed input")
	ErrIO             = fmt.Errorf("I/O error")

	// Collaborator errors
	ErrSourceUnavailable = fmt.Errorf("source unavailable")
	ErrFetchFailed       = fmt.Errorf("playlist fetch failed")
	ErrPlaylistNotFound  = fmt.Errorf("playlist not found")
	ErrScanFailed        = fmt.Errorf("local scan failed")
	ErrLocked            = fmt.Errorf("another sync holds the export lock")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
