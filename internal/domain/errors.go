package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a missing entity. On the display path this is a
// terminal state, never a retry loop.
var ErrNotFound = errors.New("tv not found")

// ValidationError is a rejected input surfaced by the collaborator, e.g.
// an empty name. Local state stays untouched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// TransientError is a network or server failure. It is surfaced to the
// user as a dismissible message and never retried automatically.
type TransientError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a TransientError anywhere in its chain.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
