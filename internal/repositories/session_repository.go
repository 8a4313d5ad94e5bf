package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agentauth/internal/models"

	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository stores minted tokens by digest.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenHash(ctx context.Context, hash string) (*models.Session, error)
	// Revoke marks an active session revoked. ErrSessionNotFound when no
	// unrevoked row matches.
	Revoke(ctx context.Context, hash string, now time.Time) error
	RevokeAllForAgent(ctx context.Context, agentID string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetByTokenHash(ctx context.Context, hash string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) Revoke(ctx context.Context, hash string, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("token_hash = ? AND revoked_at IS NULL", hash).
		Update("revoked_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to revoke session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) RevokeAllForAgent(ctx context.Context, agentID string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("agent_id = ? AND revoked_at IS NULL", agentID).
		Update("revoked_at", now)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
