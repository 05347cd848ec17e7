package download

import "errors"

var (
	// ErrSessionExpired indicates that the session id is unknown or the
	// session already passed the requested step
	ErrSessionExpired = errors.New("session expired")

	// ErrStageMismatch indicates that the event targets a step the session
	// has not reached yet
	ErrStageMismatch = errors.New("stage mismatch")

	// ErrInvalidPayload indicates malformed callback data or an unknown choice
	ErrInvalidPayload = errors.New("invalid callback payload")

	// ErrFormatLookupFailed indicates that the enumerator failed or returned
	// nothing usable
	ErrFormatLookupFailed = errors.New("format lookup failed")

	// ErrNoFormats indicates that no encoding matched the chosen kind and container
	ErrNoFormats = errors.New("no matching formats")

	// ErrFetchFailed indicates that fetching or delivering the file failed
	ErrFetchFailed = errors.New("fetch failed")
)
