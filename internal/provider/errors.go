package provider

import (
	"fmt"

	"calbridge/internal/model"
)

// AuthError means no usable credentials exist for a user/provider pair. It is
// fatal for a whole batch and surfaced before any event is processed.
type AuthError struct {
	UserID   string
	Provider model.Provider
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: not authenticated for user %q: %v", e.Provider, e.UserID, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransformError means one event could not be translated to or from a
// provider format. It is fatal only for that event.
type TransformError struct {
	Provider model.Provider
	Reason   string
	Err      error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *TransformError) Unwrap() error { return e.Err }

// APIError is a failed remote call. StatusCode is zero for transport-level
// failures (timeouts, connection errors).
type APIError struct {
	Provider   model.Provider
	Op         string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the call may be retried: 429 and 5xx only.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
