package auth

import "errors"

// Sentinel kinds for auth store errors.
var (
	ErrNoStorage   = errors.New("auth store: session storage is required")
	ErrNoUsername  = errors.New("auth store: username is required")
	ErrNotSignedIn = errors.New("not signed in")
)
