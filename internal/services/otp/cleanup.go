package otp

import (
	"context"
	"time"

	apperrors "agentauth/internal/errors"

	"go.uber.org/zap"
)

// Cleanup is idempotent. Counters that never reached the lock threshold are
// dropped once untouched for a full lockout duration.
func (s *service) Cleanup(ctx context.Context) (*CleanupResult, error) {
	now := s.config.Now()

	codes, err := s.repo.DeleteExpiredCodes(ctx, now)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	lockouts, err := s.repo.DeleteExpiredLockouts(ctx, now, now.Add(-s.config.LockoutDuration))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.metrics.RecordCleanup(codes, lockouts)
	return &CleanupResult{Codes: codes, Lockouts: lockouts}, nil
}

// RunCleanupLoop calls Cleanup every interval until ctx is done.
func (s *service) RunCleanupLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			res, err := s.Cleanup(ctx)
			if err != nil {
				s.log.Error("otp cleanup failed", zap.Error(err))
				continue
			}
			if res.Codes > 0 || res.Lockouts > 0 {
				s.log.Info("otp cleanup", zap.Int64("codes", res.Codes), zap.Int64("lockouts", res.Lockouts))
			}
		}
	}
}
