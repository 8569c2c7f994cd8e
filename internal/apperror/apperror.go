// Package apperror defines the application's domain error kinds.
//
// Every layer below the HTTP handlers returns one of these kinds (wrapped in
// an *AppError) instead of raw database or library errors. The handler layer
// is the only place that translates them into HTTP status codes, so the
// services and repositories stay protocol-agnostic.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers check these with errors.Is, which walks the
// wrap chain through AppError.Unwrap.
var (
	ErrNotFound = errors.New("not found")

	ErrValidation = errors.New("validation failed")

	// ErrDuplicateIdentity covers username/email collisions at registration.
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrInvalidCredentials is returned for BOTH an unknown username and a
	// wrong password. Keeping the two indistinguishable stops a caller from
	// probing which usernames exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated means no valid session accompanied the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller is authenticated but does not own the
	// resource it is trying to touch.
	ErrForbidden = errors.New("forbidden")
)

// AppError pairs a sentinel kind with a human-readable message and, for
// validation failures, the offending field.
type AppError struct {
	Err     error  // one of the sentinel kinds above
	Message string // safe to show to the end user
	Field   string // optional: form field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateIdentity reports that the given identity field (username or email)
// is already taken.
func DuplicateIdentity(field, value string) *AppError {
	return &AppError{
		Err:     ErrDuplicateIdentity,
		Message: fmt.Sprintf("%s %q is already taken", field, value),
		Field:   field,
	}
}

// InvalidCredentials returns the uniform login failure. The message never
// says whether the username or the password was wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid username or password",
	}
}

// Unauthenticated is returned when a protected operation is attempted
// without a valid session. HTTP handlers redirect to the login page.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "authentication required",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}
