package backend

import (
	"errors"
	"fmt"
)

var ErrUnauthorized = errors.New("unauthorized")

// StatusError is a non-2xx reply whose body was not a rejection envelope.
type StatusError struct {
	Method string
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
}

// ErrMalformedResponse marks a 2xx body that could not be decoded.
var ErrMalformedResponse = errors.New("malformed_response")
