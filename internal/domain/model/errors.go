package model

import "errors"

// Sentinel error kinds for the entity model.
var (
	ErrValidation          = errors.New("validation failed")
	ErrIncompleteAnalytics = errors.New("incomplete analytics payload")
	ErrInvalidTimestamp    = errors.New("invalid timestamp")
	ErrUnknownRole         = errors.New("unknown role")
)
