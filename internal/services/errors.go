package services

import (
	"errors"
	"fmt"

	"lodge_backend/internal/database"
)

// ErrConcurrentModification is returned when a write kept colliding with a
// concurrent transaction after its retry.
var ErrConcurrentModification = errors.New("resource was modified concurrently, please retry")

// ValidationError is a field-scoped input error. It unwraps to the sentinel
// of the resource it belongs to (e.g. ErrReservationValidation).
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(sentinel error, field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: sentinel}
}

// txError maps transaction-level failures onto service errors.
func txError(err error) error {
	if errors.Is(err, database.ErrRetryExhausted) {
		return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
	}
	return err
}
