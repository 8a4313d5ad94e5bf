package errors

import (
	"fmt"
	"time"
)

// InvalidCode reports a missing or mismatched code with the attempts left.
func InvalidCode(remaining int) *DomainError {
	if remaining < 0 {
		remaining = 0
	}
	return &DomainError{
		Kind:      KindInvalidCode,
		Code:      "OTP_INVALID",
		Message:   fmt.Sprintf("invalid verification code, %d attempts remaining", remaining),
		Remaining: remaining,
	}
}

func Expired() *DomainError {
	return &DomainError{Kind: KindExpired, Code: "OTP_EXPIRED", Message: "verification code has expired"}
}

func MaxAttempts() *DomainError {
	return &DomainError{Kind: KindMaxAttempts, Code: "OTP_MAX_ATTEMPTS", Message: "maximum verification attempts reached for this code"}
}

func Locked(until time.Time) *DomainError {
	u := until.UTC()
	return &DomainError{
		Kind:        KindLocked,
		Code:        "OTP_LOCKED",
		Message:     "too many failed attempts, phone number is temporarily locked",
		LockedUntil: &u,
	}
}

func RateLimited(retryAfter time.Duration) *DomainError {
	return &DomainError{
		Kind:       KindRateLimited,
		Code:       "OTP_RATE_LIMITED",
		Message:    fmt.Sprintf("too many code requests, retry in %d seconds", int(retryAfter.Seconds())),
		RetryAfter: retryAfter,
	}
}
