// Package errors provides the base error kinds shared by all domain
// packages. The three security-relevant kinds are strictly disjoint:
// authentication (caller identity could not be established, 401),
// authorization (identity established, action not permitted, 403) and
// validation (input malformed, 400). Handlers map kinds to status codes;
// domain code only wraps them.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates the input data is invalid or fails policy.
	ErrValidation = errors.New("invalid input")

	// ErrAuthentication indicates the caller's identity could not be
	// established. Never used for permission failures.
	ErrAuthentication = errors.New("not authenticated")

	// ErrAuthorization indicates an established identity lacks permission.
	// Never used for identity failures.
	ErrAuthorization = errors.New("permission denied")
)

// Wrap wraps an error with additional context while preserving the chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
