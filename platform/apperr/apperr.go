// Package apperr provides standardized domain error types for the sync engine.
// Services return these typed errors so orchestrating callers can decide
// between retrying, degrading to cached data, or asking the operator to fix
// configuration or credentials.
package apperr

import (
	"errors"
	"fmt"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindValidation indicates invalid row or input data. Non-fatal, accumulated per row.
	KindValidation
	// KindConfig indicates missing or inconsistent configuration (host, credentials).
	// Raised before any I/O is attempted.
	KindConfig
	// KindTransient indicates a network or remote failure that may succeed on retry.
	KindTransient
	// KindAuth indicates an authentication failure against a supplier endpoint.
	// Distinguished from KindTransient so callers can prompt for credential
	// correction instead of retrying blindly.
	KindAuth
	// KindTimeout indicates an attempt exceeded its configured deadline.
	// Never retried under the generic backoff path.
	KindTimeout
	// KindRateLimited indicates the remote rejected the call due to quota.
	KindRateLimited
	// KindNotFound indicates a resource (file, product, credential) was not found.
	KindNotFound
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Error is a domain error with a typed Kind.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// Convenience constructors for common error types.

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Config creates a configuration error.
func Config(message string) *Error {
	return New(KindConfig, message)
}

// Transient creates a transient I/O error.
func Transient(message string, err error) *Error {
	return Wrap(KindTransient, message, err)
}

// Auth creates an authentication error.
func Auth(message string) *Error {
	return New(KindAuth, message)
}

// Timeout creates a timeout error.
func Timeout(message string, err error) *Error {
	return Wrap(KindTimeout, message, err)
}

// RateLimited creates a rate limit error.
func RateLimited(message string) *Error {
	return New(KindRateLimited, message)
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Internal creates an internal error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// GetKind extracts the error kind from an error chain.
// Returns KindUnknown if no *Error is present.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// Retryable reports whether the error may succeed on a later attempt.
// Timeouts are excluded: they surface immediately to the caller.
func Retryable(err error) bool {
	switch GetKind(err) {
	case KindTransient, KindRateLimited:
		return true
	default:
		return false
	}
}

// IsTimeout reports whether the error chain contains a timeout.
func IsTimeout(err error) bool {
	return Is(err, KindTimeout)
}

// IsAuth reports whether the error chain contains an authentication failure.
func IsAuth(err error) bool {
	return Is(err, KindAuth)
}
