package lab

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is missing so handlers can respond with 404.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record already exists")
	// ErrLocked is returned for mutations of a shift whose report was approved.
	ErrLocked = errors.New("shift report approved; editing is locked")
	// ErrAllowanceExceeded is returned when a job has used all its sample numbers.
	ErrAllowanceExceeded = errors.New("job sample allowance exhausted")
)

type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

// Invalid builds a validation error for rule violations in caller input.
func Invalid(format string, args ...any) error {
	return validationError{message: fmt.Sprintf(format, args...)}
}

// IsValidation distinguishes input problems from infrastructure failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
