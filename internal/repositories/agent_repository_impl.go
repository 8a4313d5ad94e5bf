package repositories

import (
	"context"
	"errors"
	"fmt"

	"agentauth/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type agentRepository struct {
	db    *gorm.DB
	cache AgentCache
	log   *zap.Logger
}

// NewAgentRepository creates an AgentRepository. cache may be nil.
func NewAgentRepository(db *gorm.DB, cache AgentCache, log *zap.Logger) AgentRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &agentRepository{db: db, cache: cache, log: log}
}

func (r *agentRepository) Create(ctx context.Context, agent *models.Agent) error {
	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create agent: %w", err)
	}
	return nil
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	if r.cache != nil {
		agent, ok, err := r.cache.GetAgent(ctx, id)
		if err != nil {
			r.log.Warn("agent cache read failed", zap.String("agent_id", id), zap.Error(err))
		} else if ok {
			return agent, nil
		}
	}

	agent, err := r.findOne(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.CacheAgent(ctx, agent); err != nil {
			r.log.Warn("failed to cache agent", zap.String("agent_id", id), zap.Error(err))
		}
	}
	return agent, nil
}

func (r *agentRepository) GetByPhone(ctx context.Context, phone string) (*models.Agent, error) {
	return r.findOne(ctx, "phone_number = ?", phone)
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*models.Agent, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *agentRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).Where(query, arg).First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

func (r *agentRepository) EmailTakenByOther(ctx context.Context, email, excludeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Agent{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (r *agentRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Agent{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to update agent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAgentNotFound
	}

	if r.cache != nil {
		if err := r.cache.InvalidateAgent(ctx, id); err != nil {
			r.log.Warn("failed to invalidate agent cache", zap.String("agent_id", id), zap.Error(err))
		}
	}
	return nil
}
