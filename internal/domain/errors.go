package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the target trust record does not exist.
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks privileged operations attempted by non-admin actors.
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	// ErrStorageUnavailable wraps store I/O failures; a failed write must
	// leave the previous state intact.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Enforcement denial sentinels. Denials are expected, user-facing outcomes,
// not bugs to be logged as errors.
var (
	ErrLimitReached      = errors.New("limit reached")
	ErrActionNotAllowed  = errors.New("action not allowed")
	ErrProfileIncomplete = errors.New("profile incomplete")
)

// EnforcementError carries the current value and the limit alongside the
// denial sentinel so the calling UI can render specific guidance
// ("limit 2 active jobs, you have 2").
type EnforcementError struct {
	Err     error
	Message string
	Current int
	Limit   int
}

func (e *EnforcementError) Error() string {
	return fmt.Sprintf("%s (current %d, limit %d)", e.Message, e.Current, e.Limit)
}

func (e *EnforcementError) Unwrap() error { return e.Err }

func NewEnforcementError(sentinel error, message string, current, limit int) *EnforcementError {
	return &EnforcementError{Err: sentinel, Message: message, Current: current, Limit: limit}
}
