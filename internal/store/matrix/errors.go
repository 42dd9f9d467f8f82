package matrix

import "errors"

// Sentinel kinds for matrix store errors.
var (
	ErrNoGateway = errors.New("matrix store: gateway is required")
)
