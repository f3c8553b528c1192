package session

import "errors"

// Sentinel errors surfaced by session stores. Callers match these with
// errors.Is to pick the right HTTP status.
var (
	// ErrSessionNotFound is returned when the session ID is unknown
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned on writes to an ended session
	ErrSessionClosed = errors.New("session is closed")
)
