package agent

import (
	"context"

	"agentauth/internal/models"
)

// Service is the agent registry.
type Service interface {
	// Register validates the input, enforces phone and email uniqueness and
	// allocates a unique six digit license number.
	Register(ctx context.Context, input models.RegisterAgentInput) (*models.Agent, error)

	// Lookups return (nil, nil) when no agent matches.
	GetByPhoneNumber(ctx context.Context, phone string) (*models.Agent, error)
	GetByID(ctx context.Context, id string) (*models.Agent, error)
	GetByEmail(ctx context.Context, email string) (*models.Agent, error)

	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.Agent, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Agent, error)
}
