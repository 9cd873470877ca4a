package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the core. Specific errors wrap exactly one kind so
// callers can match either with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateResource = errors.New("resource already exists")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("access forbidden")
)

var (
	ErrUserExists         = fmt.Errorf("%w: email already registered", ErrDuplicateResource)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
)

// InvalidInputf builds an ErrInvalidInput carrying a field-level message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
