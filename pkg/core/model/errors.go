package model

import "errors"

// Failure kinds returned by the core. Callers branch with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
)

// ErrorKind maps an error onto a stable kind name for display layers.
// Errors outside the taxonomy are reported as "Internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrCapacityExceeded):
		return "CapacityExceeded"
	case errors.Is(err, ErrInvalidTimeRange):
		return "InvalidTimeRange"
	case errors.Is(err, ErrValidation):
		return "Validation"
	case errors.Is(err, ErrConflict):
		return "Conflict"
	default:
		return "Internal"
	}
}
