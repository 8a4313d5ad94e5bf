// Package errors defines the closed set of error kinds produced by the agent
// registry, the OTP authenticator and the session issuer. The HTTP layer
// switches on Kind, never on the message text.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Kind identifies a class of failure.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindDuplicate    Kind = "duplicate"
	KindNotFound     Kind = "not_found"
	KindInvalidCode  Kind = "invalid_code"
	KindExpired      Kind = "expired"
	KindMaxAttempts  Kind = "max_attempts"
	KindLocked       Kind = "locked"
	KindRateLimited  Kind = "rate_limited"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// DomainError carries a machine readable kind and code next to a human message.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string

	// Field names the offending input for validation and duplicate errors.
	Field string
	// Remaining is the number of verification attempts left before lockout.
	Remaining int
	// LockedUntil is set on locked errors.
	LockedUntil *time.Time
	// RetryAfter is set on rate limited errors.
	RetryAfter time.Duration

	Err error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on kind, and on code too when the target sets one.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Sentinels usable with errors.Is.
var (
	ErrValidation   = &DomainError{Kind: KindValidation}
	ErrDuplicate    = &DomainError{Kind: KindDuplicate}
	ErrNotFound     = &DomainError{Kind: KindNotFound}
	ErrInvalidCode  = &DomainError{Kind: KindInvalidCode}
	ErrExpired      = &DomainError{Kind: KindExpired}
	ErrMaxAttempts  = &DomainError{Kind: KindMaxAttempts}
	ErrLocked       = &DomainError{Kind: KindLocked}
	ErrRateLimited  = &DomainError{Kind: KindRateLimited}
	ErrUnauthorized = &DomainError{Kind: KindUnauthorized}
	ErrInternal     = &DomainError{Kind: KindInternal}
)

// KindOf returns the kind of err, or KindInternal for anything that is not a
// DomainError.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// As unwraps err into a DomainError.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func Validation(field, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: "VALIDATION_FAILED", Field: field, Message: message}
}

func NotFound(code, message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message}
}

func Unauthorized(message string) *DomainError {
	return &DomainError{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

// Internal wraps an unexpected failure. The message stays generic.
func Internal(err error) *DomainError {
	return &DomainError{Kind: KindInternal, Code: "INTERNAL", Message: "internal error", Err: err}
}
