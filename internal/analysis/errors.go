package analysis

import (
	"errors"
	"fmt"
)

// ErrorKind classifies submission failures surfaced to the intake workflow.
type ErrorKind string

const (
	// NetworkFailure means no response reached the caller.
	NetworkFailure ErrorKind = "NETWORK_FAILURE"
	// ServerFailure means a response arrived but carried an error status or
	// an unusable payload.
	ServerFailure ErrorKind = "SERVER_FAILURE"
)

// Error is returned by Client.Analyze for every failed submission.
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP status for server failures, 0 otherwise
	Message string // backend-provided message when one could be read
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err, if it is an analysis error.
func KindOf(err error) (ErrorKind, bool) {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Kind, true
	}
	return "", false
}

func networkError(err error) *Error {
	return &Error{Kind: NetworkFailure, Err: err}
}

func serverError(status int, message string, err error) *Error {
	return &Error{Kind: ServerFailure, Status: status, Message: message, Err: err}
}
