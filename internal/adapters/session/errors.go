package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrNoSession    = errors.New("no stored session")
	ErrTokenExpired = errors.New("session token expired")
	ErrNoPath       = errors.New("session path not set")
)
