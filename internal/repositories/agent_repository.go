package repositories

import (
	"context"
	"errors"

	"agentauth/internal/models"
)

var ErrAgentNotFound = errors.New("agent not found")

// AgentCache is the optional read-through cache used by GetByID.
type AgentCache interface {
	GetAgent(ctx context.Context, id string) (*models.Agent, bool, error)
	CacheAgent(ctx context.Context, agent *models.Agent) error
	InvalidateAgent(ctx context.Context, id string) error
}

// AgentRepository defines the agent persistence operations
type AgentRepository interface {
	// Create inserts the agent. A unique violation returns ErrDuplicateKey.
	Create(ctx context.Context, agent *models.Agent) error

	GetByID(ctx context.Context, id string) (*models.Agent, error)
	GetByPhone(ctx context.Context, phone string) (*models.Agent, error)
	GetByEmail(ctx context.Context, email string) (*models.Agent, error)

	// EmailTakenByOther reports whether email belongs to an agent other than excludeID.
	EmailTakenByOther(ctx context.Context, email, excludeID string) (bool, error)

	// UpdateFields applies the column updates to the agent with id.
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}
