package rest

import (
	"errors"
	"fmt"
)

// The client-wide error taxonomy. Background polls swallow everything but
// session expiry; user-initiated actions surface exactly one flash per
// failure, using the server message when one was provided.
var (
	// ErrSessionExpired marks an authentication rejection. Terminal for the
	// session: credentials are already cleared by the time a caller sees it.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotFound marks a missing target (user, conversation).
	ErrNotFound = errors.New("not found")
)

// ValidationError is a client-side precondition failure. It is raised before
// any network call and always carries an actionable reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validation builds a ValidationError with a formatted reason.
func Validation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NetworkError is a transport-level failure (connection refused, timeout,
// DNS). Partner-list loads retry these; everything else surfaces them.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is transport-level.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// ServerError is any non-2xx response outside the dedicated classes above.
// Message holds the server-provided reason when one was decodable.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}

// UserMessage returns the text to flash for a user-initiated failure: the
// server-provided message when present, else the given fallback.
func UserMessage(err error, fallback string) string {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return fallback
}
