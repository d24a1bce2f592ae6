package api

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the server returned 404 for a session or question.
// The engine treats this as natural session completion, not a failure.
type ErrNotFound struct {
	Resource string
	Err      error
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Resource, e.Err)
}

func (e *ErrNotFound) Unwrap() error { return e.Err }

// ErrUnauthenticated indicates the bearer token was rejected (401).
// Fatal to the local session; the surrounding view forces sign-out.
type ErrUnauthenticated struct {
	Err error
}

func (e *ErrUnauthenticated) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthenticated: %v", e.Err)
	}
	return "unauthenticated"
}

func (e *ErrUnauthenticated) Unwrap() error { return e.Err }

// ErrTransient indicates a network failure or a 5xx/429 response.
// Recoverable by user-initiated retry; never retried automatically by
// the engine.
type ErrTransient struct {
	Status int // 0 when the request never reached the server
	Err    error
}

func (e *ErrTransient) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transient server error (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *ErrTransient) Unwrap() error { return e.Err }

// ErrInvalidPayload indicates a response that failed schema validation.
type ErrInvalidPayload struct {
	Operation string
	Err       error
}

func (e *ErrInvalidPayload) Error() string {
	return fmt.Sprintf("invalid %s payload: %v", e.Operation, e.Err)
}

func (e *ErrInvalidPayload) Unwrap() error { return e.Err }

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// IsUnauthenticated reports whether err is an ErrUnauthenticated.
func IsUnauthenticated(err error) bool {
	var ua *ErrUnauthenticated
	return errors.As(err, &ua)
}

// IsTransient reports whether err is an ErrTransient.
func IsTransient(err error) bool {
	var tr *ErrTransient
	return errors.As(err, &tr)
}
