package repositories

import (
	"context"
	"errors"
	"time"

	"agentauth/internal/models"
)

var (
	ErrOtpNotFound     = errors.New("otp code not found")
	ErrOtpAlreadyUsed  = errors.New("otp code already used")
	ErrLockoutNotFound = errors.New("lockout not found")
)

// OtpRepository defines the persistence operations for codes and lockouts.
// Methods called on the repository passed to ExecuteInTransaction run inside
// that transaction.
type OtpRepository interface {
	// Codes
	InvalidateActiveCodes(ctx context.Context, phone string) (int64, error)
	CreateCode(ctx context.Context, code *models.OtpCode) error
	// FindActiveCodeForUpdate returns the newest unused code matching phone
	// and code, locking the row.
	FindActiveCodeForUpdate(ctx context.Context, phone, code string) (*models.OtpCode, error)
	IncrementActiveCodeAttempts(ctx context.Context, phone string) error
	// MarkUsed flips is_used on an unused row. ErrOtpAlreadyUsed if it lost a race.
	MarkUsed(ctx context.Context, id uint) error
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)

	// Lockouts
	GetLockout(ctx context.Context, phone string) (*models.OtpLockout, error)
	GetLockoutForUpdate(ctx context.Context, phone string) (*models.OtpLockout, error)
	// IncrementLockout upserts the row and returns it after the increment.
	IncrementLockout(ctx context.Context, phone string, now time.Time) (*models.OtpLockout, error)
	SetLockedUntil(ctx context.Context, phone string, until, now time.Time) error
	UpsertLockout(ctx context.Context, phone string, attempts int, lockedUntil *time.Time, now time.Time) error
	DeleteLockout(ctx context.Context, phone string) error
	// DeleteExpiredLockouts removes lapsed lockouts and counters untouched since staleBefore.
	DeleteExpiredLockouts(ctx context.Context, now, staleBefore time.Time) (int64, error)

	ExecuteInTransaction(ctx context.Context, fn func(OtpRepository) error) error
}
