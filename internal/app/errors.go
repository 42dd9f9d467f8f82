package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrForbidden  = errors.New("forbidden")
	ErrNoGateway  = errors.New("service: gateway is required")
	ErrNotStarted = errors.New("service not started")
)
