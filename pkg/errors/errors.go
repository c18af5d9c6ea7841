package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeCredentials ErrorType = "credentials"
	ErrorTypeForbidden   ErrorType = "forbidden"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeNoTimeline  ErrorType = "no_timeline"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeStorage     ErrorType = "storage"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Sentinel errors shared across packages.
var (
	ErrEmptyAccount       = errors.New("target account name is empty")
	ErrMissingCredentials = errors.New("credentials are missing")
	ErrQuotaExhausted     = errors.New("scoring service daily quota exhausted")
)

// Error represents an API or local failure with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
	// RetryAfter is the server-advertised wait for throttling errors.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given type.
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates an Error of the given type around an underlying error.
func Wrap(t ErrorType, err error, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// Config reports a configuration problem. No remote call or state change
// may follow one.
func Config(err error, message string) *Error {
	return Wrap(ErrorTypeConfig, err, message)
}

// Storage reports a failure to open or write the persisted store.
func Storage(err error, message string) *Error {
	return Wrap(ErrorTypeStorage, err, message)
}

// FromStatus maps an HTTP status code to a typed Error.
func FromStatus(code int, message string) *Error {
	var t ErrorType
	switch {
	case code == http.StatusUnauthorized:
		t = ErrorTypeAuth
	case code == http.StatusForbidden:
		t = ErrorTypeForbidden
	case code == http.StatusNotFound:
		t = ErrorTypeNotFound
	case code == http.StatusTooManyRequests:
		t = ErrorTypeRateLimit
	case code >= 500:
		t = ErrorTypeServerError
	default:
		t = ErrorTypeUnknown
	}
	return &Error{Type: t, Message: message, Code: code}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given ErrorType.
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case http.StatusTooManyRequests:
		return true
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	default:
		return statusCode >= 500
	}
}
