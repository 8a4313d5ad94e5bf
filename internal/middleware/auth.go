// Package middleware provides the fiber middleware that authenticates agents
// and administrative callers.
package middleware

import (
	"crypto/subtle"
	"strings"

	apperrors "agentauth/internal/errors"
	"agentauth/internal/services/session"
	"agentauth/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminTokenHeader carries the static operator token.
const AdminTokenHeader = "X-Admin-Token"

// AuthMiddleware validates bearer tokens through the session issuer and
// stores the agent and token in the request locals.
type AuthMiddleware struct {
	sessions session.Service
	log      *zap.Logger
}

func NewAuthMiddleware(sessions session.Service, log *zap.Logger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthMiddleware{sessions: sessions, log: log}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	agent, err := m.sessions.Validate(c.UserContext(), token)
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindUnauthorized {
			m.log.Error("session validation failed", zap.Error(err))
			return utils.InternalError(c, "internal error")
		}
		return utils.Unauthorized(c, "invalid or expired session")
	}

	c.Locals(utils.LocalAgent, agent)
	c.Locals(utils.LocalToken, token)
	return c.Next()
}

// AdminToken admits requests carrying the configured operator token. An empty
// token disables the admin routes.
func AdminToken(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expected == "" {
			return utils.Forbidden(c, "admin access disabled")
		}
		got := c.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			return utils.Forbidden(c, "admin access denied")
		}
		return c.Next()
	}
}
