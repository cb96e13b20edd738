package crawler

import "errors"

var (
	// ErrEndOfList signals that a listing has no more entries. It is a
	// sentinel, not a failure.
	ErrEndOfList = errors.New("end of listing")

	// ErrProfileNotFound is returned when the target account does not
	// exist or is not visible.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNotAuthenticated is returned when a request requires a session
	// and none is established.
	ErrNotAuthenticated = errors.New("not authenticated")
)
