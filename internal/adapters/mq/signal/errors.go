package signal

import "errors"

// Sentinel kinds for bus errors.
var (
	ErrClosed  = errors.New("signal bus closed")
	ErrDropped = errors.New("signal dropped: buffer full")
)
