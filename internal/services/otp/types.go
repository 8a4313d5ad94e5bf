package otp

import (
	"time"

	"agentauth/internal/config"
)

// Defaults
const (
	DefaultCodeLength      = 6
	DefaultTTL             = 10 * time.Minute
	DefaultLockoutDuration = 30 * time.Minute
	DefaultMaxAttempts     = 5
)

// Config holds the OTP policy. Environment decides whether issued codes are
// echoed back to the caller.
type Config struct {
	CodeLength      int
	TTL             time.Duration
	LockoutDuration time.Duration
	MaxAttempts     int
	Environment     config.Environment
	Now             func() time.Time
}

type IssueResult struct {
	ID             uint      `json:"id"`
	ExpiresAt      time.Time `json:"expires_at"`
	DeliveryMethod string    `json:"delivery_method"`
	// Code is only set outside production.
	Code string `json:"code,omitempty"`
}

type VerifyResult struct {
	Success bool `json:"success"`
	OtpID   uint `json:"otp_id"`
}

type CleanupResult struct {
	Codes    int64 `json:"codes"`
	Lockouts int64 `json:"lockouts"`
}

// Delivery is what a Sender receives.
type Delivery struct {
	PhoneNumber string
	Method      string
	Code        string
	ExpiresAt   time.Time
}

// Metric result labels
const (
	ResultIssued      = "issued"
	ResultVerified    = "verified"
	ResultInvalid     = "invalid_code"
	ResultExpired     = "expired"
	ResultMaxAttempts = "max_attempts"
	ResultLocked      = "locked"
	ResultRateLimited = "rate_limited"
	ResultError       = "error"
)
