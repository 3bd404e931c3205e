package services

import (
	"errors"
	"fmt"

	"safetrack/internal/repositories/interfaces"
)

// Domain error kinds returned to the HTTP layer. Handlers translate them to
// status codes; services never pick status codes themselves.
var (
	// ErrNotFound aliases the repository sentinel so errors.Is matches
	// regardless of which layer produced it.
	ErrNotFound = interfaces.ErrNotFound

	// ErrValidationFailed covers invariant violations: duplicate contacts,
	// the contact limit, missing required fields, wrong-status operations.
	ErrValidationFailed = errors.New("validation failed")

	// ErrForbidden means the caller is neither the resource owner nor an
	// admin.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidToken collapses absent, mismatched, and expired verification
	// tokens into one kind so responses do not leak which case occurred.
	ErrInvalidToken = errors.New("invalid or expired verification token")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}
