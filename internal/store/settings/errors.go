package settings

import "errors"

// Sentinel kinds for settings store errors.
var (
	ErrNoGateway = errors.New("settings store: gateway is required")
)
