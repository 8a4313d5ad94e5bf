// Package auth orchestrates registration and code based login across the
// agent registry, the OTP authenticator and the session issuer.
package auth

import (
	"context"

	apperrors "agentauth/internal/errors"
	"agentauth/internal/models"
	"agentauth/internal/services/agent"
	"agentauth/internal/services/otp"
	"agentauth/internal/services/session"
	"agentauth/internal/utils"

	"go.uber.org/zap"
)

type RegisterResult struct {
	Agent *models.Agent `json:"agent"`
	// Otp is nil when the agent was created but the first code could not be issued.
	Otp *otp.IssueResult `json:"otp"`
}

type LoginResult struct {
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expires_in"`
	Agent     *models.Agent `json:"agent"`
}

type Service interface {
	Register(ctx context.Context, input models.RegisterAgentInput, deliveryMethod string) (*RegisterResult, error)
	SendCode(ctx context.Context, phone, deliveryMethod string) (*otp.IssueResult, error)
	VerifyCode(ctx context.Context, phone, code string) (*LoginResult, error)
	Refresh(ctx context.Context, token string) (*session.Token, error)
	Logout(ctx context.Context, token string) error
	// SetAgentStatus updates the status and revokes sessions of agents that
	// are no longer active.
	SetAgentStatus(ctx context.Context, agentID, status string) (*models.Agent, error)
}

type service struct {
	agents   agent.Service
	otp      otp.Service
	sessions session.Service
	log      *zap.Logger
}

func NewService(agents agent.Service, otpService otp.Service, sessions session.Service, log *zap.Logger) Service {
	if agents == nil || otpService == nil || sessions == nil {
		panic("agent, otp and session services are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{agents: agents, otp: otpService, sessions: sessions, log: log.Named("auth")}
}

func (s *service) Register(ctx context.Context, input models.RegisterAgentInput, deliveryMethod string) (*RegisterResult, error) {
	created, err := s.agents.Register(ctx, input)
	if err != nil {
		return nil, err
	}

	issued, err := s.otp.Issue(ctx, created.PhoneNumber, deliveryMethod)
	if err != nil {
		// The agent exists; the client can request a code again.
		s.log.Warn("initial code issue failed",
			zap.String("agent_id", created.ID),
			zap.String("phone", utils.MaskPhone(created.PhoneNumber)),
			zap.Error(err),
		)
		return &RegisterResult{Agent: created}, nil
	}
	return &RegisterResult{Agent: created, Otp: issued}, nil
}

func (s *service) SendCode(ctx context.Context, phone, deliveryMethod string) (*otp.IssueResult, error) {
	if _, err := s.registeredAgent(ctx, phone); err != nil {
		return nil, err
	}
	return s.otp.Issue(ctx, phone, deliveryMethod)
}

func (s *service) VerifyCode(ctx context.Context, phone, code string) (*LoginResult, error) {
	a, err := s.registeredAgent(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !a.IsActive() {
		return nil, apperrors.Unauthorized("agent is not active")
	}

	if _, err := s.otp.Verify(ctx, a.PhoneNumber, code); err != nil {
		return nil, err
	}

	token, err := s.sessions.Mint(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.CreateSession(ctx, a.ID, token.Token); err != nil {
		return nil, err
	}

	s.log.Info("agent logged in", zap.String("agent_id", a.ID))
	return &LoginResult{Token: token.Token, ExpiresIn: token.ExpiresIn, Agent: a}, nil
}

func (s *service) Refresh(ctx context.Context, token string) (*session.Token, error) {
	return s.sessions.Refresh(ctx, token)
}

func (s *service) Logout(ctx context.Context, token string) error {
	return s.sessions.Invalidate(ctx, token)
}

func (s *service) SetAgentStatus(ctx context.Context, agentID, status string) (*models.Agent, error) {
	updated, err := s.agents.UpdateStatus(ctx, agentID, status)
	if err != nil {
		return nil, err
	}
	if !updated.IsActive() {
		if _, err := s.sessions.InvalidateAll(ctx, agentID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (s *service) registeredAgent(ctx context.Context, phone string) (*models.Agent, error) {
	if phone == "" {
		return nil, apperrors.Validation("phone_number", "phone number is required")
	}
	a, err := s.agents.GetByPhoneNumber(ctx, phone)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperrors.ErrAgentNotRegistered
	}
	return a, nil
}
