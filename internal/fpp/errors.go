package fpp

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFeature is returned when a command requires a device-side
// plugin that the device reports as not installed.
var ErrUnsupportedFeature = errors.New("feature not supported by device")

// UnreachableError indicates the device could not be reached at all:
// connection refused, DNS failure, timeout, or a non-2xx answer from a
// query endpoint.
type UnreachableError struct {
	URL string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("device unreachable at %s: %v", e.URL, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// InvalidResponseError indicates the device answered, but with a body that
// does not match the expected schema.
type InvalidResponseError struct {
	Endpoint string
	Err      error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response from %s: %v", e.Endpoint, e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }

// CommandError indicates a command endpoint answered with a non-2xx status.
// Body carries the device's response for diagnostics.
type CommandError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsUnreachable reports whether err is (or wraps) an UnreachableError.
func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}

// IsInvalidResponse reports whether err is (or wraps) an InvalidResponseError.
func IsInvalidResponse(err error) bool {
	var ie *InvalidResponseError
	return errors.As(err, &ie)
}
