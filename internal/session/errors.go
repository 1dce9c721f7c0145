package session

import (
	"errors"
	"fmt"
)

// Kind classifies session errors for the tool-dispatch boundary.
type Kind string

const (
	// KindValidation covers malformed or missing arguments, including the
	// not-connected precondition. Never retried.
	KindValidation Kind = "validation"

	// KindConnection covers transport-level connect or mid-session failures.
	// Forces the session state to disconnected.
	KindConnection Kind = "connection"

	// KindExecution means the command could not be run at all (the exec
	// channel could not be opened). A non-zero exit is not an error.
	KindExecution Kind = "execution"

	// KindTimeout means the command did not finish within the deadline.
	// Does not itself force a state transition.
	KindTimeout Kind = "timeout"

	// KindInternal is the catch-all used by the dispatch boundary for
	// errors that match no other kind.
	KindInternal Kind = "internal"
)

// Error is a session error with a machine-readable kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func validationErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func connectionError(message string, err error) *Error {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return &Error{Kind: KindConnection, Message: message, Err: err}
}

func executionError(message string, err error) *Error {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return &Error{Kind: KindExecution, Message: message, Err: err}
}

func timeoutErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindTimeout, Message: fmt.Sprintf(format, args...)}
}
