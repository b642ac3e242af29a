package alerts

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a missing alert record. A record owned by another
// tenant is reported the same way so callers cannot probe for its existence.
var ErrNotFound = errors.New("alert: not found")

// ValidationError rejects a mutation before any state is touched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "alert: " + e.Reason
}

// NewValidationError constructs a ValidationError.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// ConflictError rejects a resolve/dismiss on a record that is no longer
// active. Status carries the record's actual current state so callers can
// explain who got there first.
type ConflictError struct {
	Status Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("alert: not active, current status is %s", e.Status)
}
