// Package session mints and tracks agent session tokens. Tokens are HS256
// JWTs; every minted token is recorded by digest so it can be revoked.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "agentauth/internal/errors"
	"agentauth/internal/models"
	"agentauth/internal/repositories"
	"agentauth/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTTL    = 24 * time.Hour
	DefaultIssuer = "agentauth"
)

type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
	Now    func() time.Time
}

// Token is a minted session token.
type Token struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AgentLookup resolves the agent a token belongs to. Returns (nil, nil) on a miss.
type AgentLookup interface {
	GetByID(ctx context.Context, id string) (*models.Agent, error)
}

type Service interface {
	Mint(ctx context.Context, agentID string) (*Token, error)
	CreateSession(ctx context.Context, agentID, token string) error
	Validate(ctx context.Context, token string) (*models.Agent, error)
	Refresh(ctx context.Context, token string) (*Token, error)
	Invalidate(ctx context.Context, token string) error
	// InvalidateAll revokes every open session of the agent.
	InvalidateAll(ctx context.Context, agentID string) (int64, error)
	PurgeExpired(ctx context.Context) (int64, error)
	RunPurgeLoop(ctx context.Context, interval time.Duration)
}

type service struct {
	repo   repositories.SessionRepository
	agents AgentLookup
	config Config
	log    *zap.Logger
}

func NewService(repo repositories.SessionRepository, agents AgentLookup, cfg Config, log *zap.Logger) Service {
	if repo == nil || agents == nil {
		panic("session repository and agent lookup are required")
	}
	if cfg.Secret == "" {
		panic("session secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{repo: repo, agents: agents, config: cfg, log: log.Named("session")}
}

func (s *service) Mint(ctx context.Context, agentID string) (*Token, error) {
	agent, err := s.activeAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	now := s.config.Now()
	expiresAt := now.Add(s.config.TTL)
	claims := models.AgentClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   agent.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		AgentID:     agent.ID,
		PhoneNumber: agent.PhoneNumber,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("signing token: %w", err))
	}
	return &Token{
		Token:     signed,
		ExpiresIn: int64(s.config.TTL.Seconds()),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, agentID, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if claims.AgentID != agentID {
		return apperrors.Unauthorized("token does not belong to agent")
	}

	session := &models.Session{
		AgentID:   agentID,
		TokenHash: utils.HashToken(token),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
		CreatedAt: s.config.Now(),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *service) Validate(ctx context.Context, token string) (*models.Agent, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.GetByTokenHash(ctx, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, apperrors.Unauthorized("session not found")
		}
		return nil, apperrors.Internal(err)
	}
	if !session.Active(s.config.Now()) {
		return nil, apperrors.Unauthorized("session expired or revoked")
	}

	return s.activeAgent(ctx, claims.AgentID)
}

func (s *service) Refresh(ctx context.Context, token string) (*Token, error) {
	agent, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	// Only one refresh of a given token can win the revoke.
	if err := s.revoke(ctx, token); err != nil {
		return nil, err
	}

	next, err := s.Mint(ctx, agent.ID)
	if err != nil {
		return nil, err
	}
	if err := s.CreateSession(ctx, agent.ID, next.Token); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *service) Invalidate(ctx context.Context, token string) error {
	return s.revoke(ctx, token)
}

func (s *service) revoke(ctx context.Context, token string) error {
	err := s.repo.Revoke(ctx, utils.HashToken(token), s.config.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return apperrors.Unauthorized("session not found")
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *service) InvalidateAll(ctx context.Context, agentID string) (int64, error) {
	n, err := s.repo.RevokeAllForAgent(ctx, agentID, s.config.Now())
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	if n > 0 {
		s.log.Info("sessions revoked", zap.String("agent_id", agentID), zap.Int64("count", n))
	}
	return n, nil
}

func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.config.Now())
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}

func (s *service) RunPurgeLoop(ctx context.Context, interval time.Duration) {
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
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				s.log.Error("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}

func (s *service) parse(token string) (*models.AgentClaims, error) {
	claims := &models.AgentClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(s.config.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.config.Now),
	)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	if claims.AgentID == "" {
		return nil, apperrors.Unauthorized("invalid token claims")
	}
	return claims, nil
}

func (s *service) activeAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, apperrors.Unauthorized("agent not found")
	}
	if !agent.IsActive() {
		return nil, apperrors.Unauthorized("agent is not active")
	}
	return agent, nil
}
