package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a gateway failure.
type Kind string

// Error kinds.
const (
	KindNetwork Kind = "network"
	KindServer  Kind = "server"
)

// Sentinels matched by errors.Is against *Error.
var (
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTimeout      = errors.New("request timed out")
	ErrBaseURL      = errors.New("invalid base url")
)

// Error is returned by every gateway call that did not produce the expected entity.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Body    []byte
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindNetwork && e.Timeout:
		return fmt.Sprintf("%s: timeout: %v", e.Op, e.Err)
	case e.Kind == KindNetwork:
		return fmt.Sprintf("%s: network: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: server returned %d", e.Op, e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServer:
		return e.Kind == KindServer
	case ErrTimeout:
		return e.Timeout
	case ErrNotFound:
		return e.Kind == KindServer && e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Kind == KindServer && e.Status == http.StatusUnauthorized
	}
	return false
}

// label is the metrics label of e.
func (e *Error) label() string {
	switch {
	case e.Timeout:
		return "timeout"
	case e.Kind == KindNetwork:
		return "network"
	case e.Status == http.StatusNotFound:
		return "not_found"
	case e.Status == http.StatusUnauthorized:
		return "unauthorized"
	case e.Status >= http.StatusInternalServerError:
		return "server_5xx"
	default:
		return "server_4xx"
	}
}
