package utils

import "fmt"

// ErrorCode classifies handler failures for the `error` wire event.
type ErrorCode string

const (
	ErrValidation    ErrorCode = "VALIDATION_ERROR"
	ErrAuthorization ErrorCode = "AUTHORIZATION_ERROR"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrStateConflict ErrorCode = "STATE_CONFLICT"
	ErrRateLimited   ErrorCode = "RATE_LIMITED"
	ErrUpstream      ErrorCode = "UPSTREAM_ERROR"
)

// GameError is the single error type handlers surface to clients. Message is
// always user-safe; Details carries optional structured context (e.g.
// retry_after_ms for rate limits).
type GameError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
}

func (e *GameError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(message string) *GameError {
	return &GameError{Code: ErrValidation, Message: message}
}

func NewAuthorizationError(message string) *GameError {
	return &GameError{Code: ErrAuthorization, Message: message}
}

func NewNotFoundError(message string) *GameError {
	return &GameError{Code: ErrNotFound, Message: message}
}

func NewStateConflictError(message string) *GameError {
	return &GameError{Code: ErrStateConflict, Message: message}
}

func NewRateLimitedError(message string, retryAfterMs int64) *GameError {
	return &GameError{
		Code:    ErrRateLimited,
		Message: message,
		Details: map[string]interface{}{"retry_after_ms": retryAfterMs},
	}
}

func NewUpstreamError(message string) *GameError {
	return &GameError{Code: ErrUpstream, Message: message}
}

// AsGameError normalizes any error into a GameError. Unknown errors become
// upstream errors with a generic message so internals never leak to clients.
func AsGameError(err error) *GameError {
	if err == nil {
		return nil
	}
	if ge, ok := err.(*GameError); ok {
		return ge
	}
	return &GameError{Code: ErrUpstream, Message: "Internal error"}
}
