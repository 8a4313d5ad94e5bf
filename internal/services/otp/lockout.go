package otp

import (
	"context"
	"errors"
	"time"

	apperrors "agentauth/internal/errors"
	"agentauth/internal/repositories"
	"agentauth/internal/utils"
	"agentauth/internal/validation"

	"go.uber.org/zap"
)

func (s *service) IsLockedOut(ctx context.Context, phone string) (bool, *time.Time, error) {
	lockout, err := s.repo.GetLockout(ctx, validation.NormalizePhone(phone))
	if err != nil {
		if errors.Is(err, repositories.ErrLockoutNotFound) {
			return false, nil, nil
		}
		return false, nil, apperrors.Internal(err)
	}
	if !lockout.Locked(s.config.Now()) {
		return false, nil, nil
	}
	until := *lockout.LockedUntil
	return true, &until, nil
}

// CreateLockout writes the attempt count for phone. The lock engages only
// when attempts reaches the configured maximum.
func (s *service) CreateLockout(ctx context.Context, phone string, attempts int) error {
	phone = validation.NormalizePhone(phone)
	if phone == "" {
		return apperrors.Validation("phone_number", "phone number is required")
	}
	if attempts < 1 {
		return apperrors.Validation("attempts", "attempts must be positive")
	}

	now := s.config.Now()
	var lockedUntil *time.Time
	if attempts >= s.config.MaxAttempts {
		until := now.Add(s.config.LockoutDuration)
		lockedUntil = &until
	}
	if err := s.repo.UpsertLockout(ctx, phone, attempts, lockedUntil, now); err != nil {
		return apperrors.Internal(err)
	}
	s.log.Info("lockout written", zap.String("phone", utils.MaskPhone(phone)), zap.Int("attempts", attempts))
	return nil
}

func (s *service) ClearLockout(ctx context.Context, phone string) error {
	if err := s.repo.DeleteLockout(ctx, validation.NormalizePhone(phone)); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
