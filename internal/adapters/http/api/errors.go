package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrInvalidRate = errors.New("invalid rate limit")
)
