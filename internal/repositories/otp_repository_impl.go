package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agentauth/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type otpRepository struct {
	db *gorm.DB
}

func NewOtpRepository(db *gorm.DB) OtpRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) ExecuteInTransaction(ctx context.Context, fn func(OtpRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&otpRepository{db: tx})
	})
}

func (r *otpRepository) InvalidateActiveCodes(ctx context.Context, phone string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.OtpCode{}).
		Where("phone_number = ? AND is_used = ?", phone, false).
		Update("is_used", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to invalidate codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *otpRepository) CreateCode(ctx context.Context, code *models.OtpCode) error {
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		return fmt.Errorf("failed to create otp code: %w", err)
	}
	return nil
}

func (r *otpRepository) FindActiveCodeForUpdate(ctx context.Context, phone, code string) (*models.OtpCode, error) {
	var otp models.OtpCode
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("phone_number = ? AND code = ? AND is_used = ?", phone, code, false).
		Order("created_at DESC").Order("id DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOtpNotFound
		}
		return nil, fmt.Errorf("failed to find otp code: %w", err)
	}
	return &otp, nil
}

func (r *otpRepository) IncrementActiveCodeAttempts(ctx context.Context, phone string) error {
	err := r.db.WithContext(ctx).Model(&models.OtpCode{}).
		Where("phone_number = ? AND is_used = ?", phone, false).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment code attempts: %w", err)
	}
	return nil
}

func (r *otpRepository) MarkUsed(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.OtpCode{}).
		Where("id = ? AND is_used = ?", id, false).
		Update("is_used", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark code used: %w", result.Error)
	}
	if result.RowsAffected != 1 {
		return ErrOtpAlreadyUsed
	}
	return nil
}

func (r *otpRepository) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.OtpCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *otpRepository) GetLockout(ctx context.Context, phone string) (*models.OtpLockout, error) {
	return r.getLockout(r.db.WithContext(ctx), phone)
}

func (r *otpRepository) GetLockoutForUpdate(ctx context.Context, phone string) (*models.OtpLockout, error) {
	return r.getLockout(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), phone)
}

func (r *otpRepository) getLockout(db *gorm.DB, phone string) (*models.OtpLockout, error) {
	var lockout models.OtpLockout
	if err := db.Where("phone_number = ?", phone).First(&lockout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLockoutNotFound
		}
		return nil, fmt.Errorf("failed to get lockout: %w", err)
	}
	return &lockout, nil
}

func (r *otpRepository) IncrementLockout(ctx context.Context, phone string, now time.Time) (*models.OtpLockout, error) {
	lockout := models.OtpLockout{
		PhoneNumber:  phone,
		AttemptCount: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone_number"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"attempt_count": gorm.Expr("otp_lockouts.attempt_count + 1"),
			"updated_at":    now,
		}),
	}).Create(&lockout).Error
	if err != nil {
		return nil, fmt.Errorf("failed to increment lockout: %w", err)
	}
	return r.GetLockout(ctx, phone)
}

func (r *otpRepository) SetLockedUntil(ctx context.Context, phone string, until, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.OtpLockout{}).
		Where("phone_number = ?", phone).
		Updates(map[string]interface{}{"locked_until": until, "updated_at": now}).Error
	if err != nil {
		return fmt.Errorf("failed to set lockout: %w", err)
	}
	return nil
}

func (r *otpRepository) UpsertLockout(ctx context.Context, phone string, attempts int, lockedUntil *time.Time, now time.Time) error {
	lockout := models.OtpLockout{
		PhoneNumber:  phone,
		AttemptCount: attempts,
		LockedUntil:  lockedUntil,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone_number"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"attempt_count": attempts,
			"locked_until":  lockedUntil,
			"updated_at":    now,
		}),
	}).Create(&lockout).Error
	if err != nil {
		return fmt.Errorf("failed to upsert lockout: %w", err)
	}
	return nil
}

func (r *otpRepository) DeleteLockout(ctx context.Context, phone string) error {
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).Delete(&models.OtpLockout{}).Error; err != nil {
		return fmt.Errorf("failed to delete lockout: %w", err)
	}
	return nil
}

func (r *otpRepository) DeleteExpiredLockouts(ctx context.Context, now, staleBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("locked_until < ?", now).
		Or("locked_until IS NULL AND updated_at < ?", staleBefore).
		Delete(&models.OtpLockout{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired lockouts: %w", result.Error)
	}
	return result.RowsAffected, nil
}
