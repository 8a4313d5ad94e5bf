package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "agentauth/internal/errors"
	"agentauth/internal/models"
	"agentauth/internal/repositories"
	"agentauth/internal/utils"
	"agentauth/internal/validation"

	"go.uber.org/zap"
)

const licenseDigits = 6

type service struct {
	repo   repositories.AgentRepository
	config Config
	log    *zap.Logger
}

// NewService creates the agent registry
func NewService(repo repositories.AgentRepository, config Config, log *zap.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if len(config.AllowedCountryCodes) == 0 {
		config.AllowedCountryCodes = []string{"+212", "+33"}
	}
	if config.LicenseAttempts <= 0 {
		config.LicenseAttempts = DefaultLicenseAttempts
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{repo: repo, config: config, log: log.Named("agent")}
}

func (s *service) Register(ctx context.Context, input models.RegisterAgentInput) (*models.Agent, error) {
	v := validation.New()
	v.AgentRegistration(&input, s.config.AllowedCountryCodes)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.checkAvailable(ctx, input.PhoneNumber, input.Email); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.config.LicenseAttempts; attempt++ {
		license, err := utils.RandomDigits(licenseDigits)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("generating license number: %w", err))
		}

		agent := &models.Agent{
			PhoneNumber:   input.PhoneNumber,
			CountryCode:   input.CountryCode,
			FirstName:     input.FirstName,
			LastName:      input.LastName,
			Email:         input.Email,
			LicenseNumber: license,
			Status:        models.AgentStatusActive,
		}
		err = s.repo.Create(ctx, agent)
		if err == nil {
			s.log.Info("agent registered",
				zap.String("agent_id", agent.ID),
				zap.String("phone", utils.MaskPhone(agent.PhoneNumber)),
			)
			return agent, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, apperrors.Internal(err)
		}

		// A concurrent registration may have taken the phone or email.
		if err := s.checkAvailable(ctx, input.PhoneNumber, input.Email); err != nil {
			return nil, err
		}
		s.log.Warn("license number collision", zap.Int("attempt", attempt))
	}

	return nil, apperrors.Duplicate("license_number")
}

// checkAvailable reports the first taken field, phone before email.
func (s *service) checkAvailable(ctx context.Context, phone, email string) error {
	existing, err := s.repo.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, repositories.ErrAgentNotFound) {
		return apperrors.Internal(err)
	}
	if existing != nil {
		return apperrors.Duplicate("phone_number")
	}

	existing, err = s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repositories.ErrAgentNotFound) {
		return apperrors.Internal(err)
	}
	if existing != nil {
		return apperrors.Duplicate("email")
	}
	return nil
}

func (s *service) GetByPhoneNumber(ctx context.Context, phone string) (*models.Agent, error) {
	return lookup(s.repo.GetByPhone(ctx, validation.NormalizePhone(phone)))
}

func (s *service) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	return lookup(s.repo.GetByID(ctx, id))
}

func (s *service) GetByEmail(ctx context.Context, email string) (*models.Agent, error) {
	return lookup(s.repo.GetByEmail(ctx, validation.NormalizeEmail(email)))
}

func lookup(agent *models.Agent, err error) (*models.Agent, error) {
	if err != nil {
		if errors.Is(err, repositories.ErrAgentNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal(err)
	}
	return agent, nil
}

func (s *service) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.Agent, error) {
	v := validation.New()
	v.ProfileUpdate(&update)
	if err := v.Err(); err != nil {
		return nil, err
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperrors.ErrAgentNotFound
	}

	fields := map[string]interface{}{"updated_at": s.config.Now()}
	if update.FirstName != nil {
		fields["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		fields["last_name"] = *update.LastName
	}
	if update.Email != nil {
		taken, err := s.repo.EmailTakenByOther(ctx, *update.Email, id)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if taken {
			return nil, apperrors.Duplicate("email")
		}
		fields["email"] = *update.Email
	}

	if err := s.applyUpdate(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *service) UpdateStatus(ctx context.Context, id, status string) (*models.Agent, error) {
	if !models.ValidAgentStatus(status) {
		return nil, apperrors.Validation("status", "status must be one of active, inactive, suspended")
	}

	fields := map[string]interface{}{"status": status, "updated_at": s.config.Now()}
	if err := s.applyUpdate(ctx, id, fields); err != nil {
		return nil, err
	}

	s.log.Info("agent status changed", zap.String("agent_id", id), zap.String("status", status))
	return s.reload(ctx, id)
}

func (s *service) applyUpdate(ctx context.Context, id string, fields map[string]interface{}) error {
	err := s.repo.UpdateFields(ctx, id, fields)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrAgentNotFound):
		return apperrors.ErrAgentNotFound
	case errors.Is(err, repositories.ErrDuplicateKey):
		return apperrors.Duplicate("email")
	default:
		return apperrors.Internal(err)
	}
}

func (s *service) reload(ctx context.Context, id string) (*models.Agent, error) {
	agent, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, apperrors.ErrAgentNotFound
	}
	return agent, nil
}
