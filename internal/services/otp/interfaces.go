package otp

import (
	"context"
	"time"
)

// Service issues and verifies one-time codes and owns the lockout state.
type Service interface {
	// Issue invalidates any unused code for the phone and stores a new one.
	Issue(ctx context.Context, phone, deliveryMethod string) (*IssueResult, error)
	// Verify consumes a code at most once and tracks failed attempts.
	Verify(ctx context.Context, phone, code string) (*VerifyResult, error)

	// Lockout maintenance
	IsLockedOut(ctx context.Context, phone string) (bool, *time.Time, error)
	CreateLockout(ctx context.Context, phone string, attempts int) error
	ClearLockout(ctx context.Context, phone string) error

	// Cleanup deletes expired codes and lapsed lockouts.
	Cleanup(ctx context.Context) (*CleanupResult, error)
	RunCleanupLoop(ctx context.Context, interval time.Duration)
}

// Sender delivers a code to the agent.
type Sender interface {
	Send(ctx context.Context, delivery Delivery) error
}

// RateLimiter throttles issue requests per phone. A positive retryAfter
// denies the request.
type RateLimiter interface {
	Allow(ctx context.Context, phone string) (retryAfter time.Duration, err error)
}

// MetricsCollector records OTP outcomes.
type MetricsCollector interface {
	RecordIssue(result string)
	RecordVerify(result string)
	RecordCleanup(codes, lockouts int64)
}
