package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agentauth/internal/config"
	apperrors "agentauth/internal/errors"
	"agentauth/internal/models"
	"agentauth/internal/repositories"
	"agentauth/internal/utils"
	"agentauth/internal/validation"

	"go.uber.org/zap"
)

type service struct {
	repo    repositories.OtpRepository
	limiter RateLimiter
	sender  Sender
	config  Config
	metrics MetricsCollector
	log     *zap.Logger
}

// NewService creates the OTP authenticator. limiter may be nil.
func NewService(
	repo repositories.OtpRepository,
	limiter RateLimiter,
	sender Sender,
	cfg Config,
	metrics MetricsCollector,
	log *zap.Logger,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("otp")

	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = DefaultLockoutDuration
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Environment == "" {
		cfg.Environment = config.Development
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	if sender == nil {
		sender = discardSender{}
	}
	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		limiter: limiter,
		sender:  sender,
		config:  cfg,
		metrics: metrics,
		log:     log,
	}
}

func (s *service) Issue(ctx context.Context, phone, deliveryMethod string) (*IssueResult, error) {
	phone = validation.NormalizePhone(phone)
	if phone == "" {
		return nil, apperrors.Validation("phone_number", "phone number is required")
	}
	method := strings.ToLower(strings.TrimSpace(deliveryMethod))
	if method == "" {
		method = models.DeliverySMS
	}
	if !models.ValidDeliveryMethod(method) {
		return nil, apperrors.Validation("delivery_method", "delivery method must be one of sms, email, whatsapp")
	}

	now := s.config.Now()

	lockout, err := s.repo.GetLockout(ctx, phone)
	switch {
	case err == nil && lockout.Locked(now):
		s.metrics.RecordIssue(ResultLocked)
		return nil, apperrors.Locked(*lockout.LockedUntil)
	case err != nil && !errors.Is(err, repositories.ErrLockoutNotFound):
		s.metrics.RecordIssue(ResultError)
		return nil, apperrors.Internal(err)
	}

	if s.limiter != nil {
		retryAfter, err := s.limiter.Allow(ctx, phone)
		if err != nil {
			// The limiter fails open; the lockout still bounds verification.
			s.log.Warn("rate limiter unavailable", zap.Error(err))
		} else if retryAfter > 0 {
			s.metrics.RecordIssue(ResultRateLimited)
			return nil, apperrors.RateLimited(retryAfter)
		}
	}

	code, err := utils.RandomCode(s.config.CodeLength)
	if err != nil {
		s.metrics.RecordIssue(ResultError)
		return nil, apperrors.Internal(fmt.Errorf("generating code: %w", err))
	}

	otp := &models.OtpCode{
		PhoneNumber:    phone,
		Code:           code,
		DeliveryMethod: method,
		ExpiresAt:      now.Add(s.config.TTL),
		CreatedAt:      now,
	}
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.OtpRepository) error {
		if _, err := tx.InvalidateActiveCodes(ctx, phone); err != nil {
			return err
		}
		return tx.CreateCode(ctx, otp)
	})
	if err != nil {
		s.metrics.RecordIssue(ResultError)
		return nil, apperrors.Internal(err)
	}

	delivery := Delivery{PhoneNumber: phone, Method: method, Code: code, ExpiresAt: otp.ExpiresAt}
	if err := s.sender.Send(ctx, delivery); err != nil {
		s.log.Warn("code delivery failed",
			zap.String("phone", utils.MaskPhone(phone)),
			zap.String("method", method),
			zap.Error(err),
		)
	}

	s.metrics.RecordIssue(ResultIssued)
	result := &IssueResult{ID: otp.ID, ExpiresAt: otp.ExpiresAt, DeliveryMethod: method}
	if s.config.Environment != config.Production {
		result.Code = code
	}
	return result, nil
}

func (s *service) Verify(ctx context.Context, phone, code string) (*VerifyResult, error) {
	phone = validation.NormalizePhone(phone)
	code = strings.TrimSpace(code)
	if phone == "" {
		return nil, apperrors.Validation("phone_number", "phone number is required")
	}
	if code == "" {
		return nil, apperrors.Validation("code", "code is required")
	}

	now := s.config.Now()

	// Outcome errors are returned after commit so failed attempts persist.
	var (
		outcome *apperrors.DomainError
		result  *VerifyResult
	)
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.OtpRepository) error {
		lockout, err := tx.GetLockoutForUpdate(ctx, phone)
		switch {
		case err == nil && lockout.Locked(now):
			outcome = apperrors.Locked(*lockout.LockedUntil)
			return nil
		case err == nil && lockout.Stale(now):
			if err := tx.DeleteLockout(ctx, phone); err != nil {
				return err
			}
		case err != nil && !errors.Is(err, repositories.ErrLockoutNotFound):
			return err
		}

		otp, err := tx.FindActiveCodeForUpdate(ctx, phone, code)
		if errors.Is(err, repositories.ErrOtpNotFound) {
			outcome, err = s.recordFailure(ctx, tx, phone, now)
			return err
		}
		if err != nil {
			return err
		}

		if otp.Expired(now) {
			outcome = apperrors.Expired()
			return nil
		}
		if otp.Attempts >= s.config.MaxAttempts {
			outcome = apperrors.MaxAttempts()
			return nil
		}

		if err := tx.MarkUsed(ctx, otp.ID); err != nil {
			if errors.Is(err, repositories.ErrOtpAlreadyUsed) {
				outcome, err = s.recordFailure(ctx, tx, phone, now)
			}
			return err
		}
		if err := tx.DeleteLockout(ctx, phone); err != nil {
			return err
		}
		result = &VerifyResult{Success: true, OtpID: otp.ID}
		return nil
	})
	if err != nil {
		s.metrics.RecordVerify(ResultError)
		return nil, apperrors.Internal(err)
	}
	if outcome != nil {
		s.metrics.RecordVerify(verifyResultLabel(outcome))
		return nil, outcome
	}

	s.metrics.RecordVerify(ResultVerified)
	return result, nil
}

// recordFailure counts a failed attempt and engages the lockout at the threshold.
func (s *service) recordFailure(ctx context.Context, tx repositories.OtpRepository, phone string, now time.Time) (*apperrors.DomainError, error) {
	if err := tx.IncrementActiveCodeAttempts(ctx, phone); err != nil {
		return nil, err
	}
	lockout, err := tx.IncrementLockout(ctx, phone, now)
	if err != nil {
		return nil, err
	}

	if lockout.AttemptCount >= s.config.MaxAttempts {
		until := now.Add(s.config.LockoutDuration)
		if err := tx.SetLockedUntil(ctx, phone, until, now); err != nil {
			return nil, err
		}
		s.log.Warn("phone locked out",
			zap.String("phone", utils.MaskPhone(phone)),
			zap.Int("attempts", lockout.AttemptCount),
			zap.Time("locked_until", until),
		)
		return apperrors.Locked(until), nil
	}
	return apperrors.InvalidCode(s.config.MaxAttempts - lockout.AttemptCount), nil
}

func verifyResultLabel(err error) string {
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidCode:
		return ResultInvalid
	case apperrors.KindExpired:
		return ResultExpired
	case apperrors.KindMaxAttempts:
		return ResultMaxAttempts
	case apperrors.KindLocked:
		return ResultLocked
	default:
		return ResultError
	}
}
