package api

import (
	"errors"
	"fmt"
)

// ServerError is returned when the backend answered with a non-2xx status.
type ServerError struct {
	Op         string
	StatusCode int
	Status     string
	// Message is the server-supplied error text; empty when the body carried none.
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend error: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend error: %s (%s)", e.Op, e.Status, e.Message)
}

// TransportError is returned when no response was received at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MessageOf extracts the server-supplied message from err, if any.
func MessageOf(err error) string {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Message
	}
	return ""
}

// IsTransport reports whether err means the backend was never reached.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
