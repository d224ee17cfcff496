package types

import "fmt"

// ErrorCode represents a unified error code across the voice core.
type ErrorCode string

// Validation and session error codes
const (
	ErrValidation      ErrorCode = "VALIDATION_FAILED"
	ErrEmptyText       ErrorCode = "EMPTY_TEXT"
	ErrUnsupportedLang ErrorCode = "UNSUPPORTED_LANGUAGE"
	// ErrSessionNotFound is reserved for hosts classifying unknown-session
	// lookups at their own API boundary. The orchestrator reports a miss
	// with a false/nil return rather than an error, since sessions are
	// created lazily.
	ErrSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
)

// Cascade error codes
const (
	// ErrBackendUnavailable marks a transport-level failure reaching one
	// specific backend. The cascades absorb it and try the next backend;
	// it surfaces to callers only through the Cause chain of a terminal
	// cascade error.
	ErrBackendUnavailable     ErrorCode = "BACKEND_UNAVAILABLE"
	ErrRecognitionUnavailable ErrorCode = "RECOGNITION_UNAVAILABLE"
	ErrRecognitionFailed      ErrorCode = "RECOGNITION_FAILED"
	ErrSynthesisFailed        ErrorCode = "SYNTHESIS_FAILED"
	ErrNoSynthesisEngine      ErrorCode = "NO_SYNTHESIS_ENGINE"
)

// Error represents a structured error with code, message, and metadata.
// Recognition failures may carry a Fallback recommendation so the host
// application can offer a modality switch.
type Error struct {
	Code      ErrorCode           `json:"code"`
	Message   string              `json:"message"`
	Backend   string              `json:"backend,omitempty"`
	Retryable bool                `json:"retryable"`
	Fallback  *FallbackSuggestion `json:"fallback,omitempty"`
	Cause     error               `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithBackend sets the backend name.
func (e *Error) WithBackend(backend string) *Error {
	e.Backend = backend
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithFallback attaches a modality-switch recommendation.
func (e *Error) WithFallback(s *FallbackSuggestion) *Error {
	e.Fallback = s
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// GetFallback extracts the fallback recommendation from an error, if any.
func GetFallback(err error) *FallbackSuggestion {
	if e, ok := err.(*Error); ok {
		return e.Fallback
	}
	return nil
}
