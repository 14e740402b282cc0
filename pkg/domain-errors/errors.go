// Package domainerrors defines the coded error type used across service and
// transport tiers. Services attach a Code; the HTTP layer maps codes to status
// codes in exactly one place. Stores return sentinel errors instead (see
// pkg/platform/sentinel) and services translate.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and the transport tier.
type Code string

const (
	// CodeForbidden: the action is not in the caller's legal set for the
	// current state and identity. User-facing, not retryable.
	CodeForbidden Code = "forbidden"
	// CodeIllegalTransition: the action has no defined next state. Indicates
	// a stale client view; recoverable by refetching.
	CodeIllegalTransition Code = "illegal_transition"
	// CodeNoReviewerAvailable: assignment policy could not resolve a reviewer.
	// Fatal to request creation.
	CodeNoReviewerAvailable Code = "no_reviewer_available"
	// CodeConflict: optimistic concurrency check failed. Retry with a fresh
	// snapshot.
	CodeConflict Code = "conflict"

	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal"
)

// DomainError carries a Code plus a human-readable message. It supports
// wrapping so infrastructure causes survive errors.Is/As chains.
type DomainError struct {
	Code    Code
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.cause }

// New builds a DomainError with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Wrap builds a DomainError preserving the underlying cause.
func Wrap(code Code, message string, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) is a DomainError with
// the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability:
// dErrors.Is(err, dErrors.CodeForbidden).
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeForbidden:
		return http.StatusForbidden
	case CodeIllegalTransition, CodeConflict:
		return http.StatusConflict
	case CodeNoReviewerAvailable:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
