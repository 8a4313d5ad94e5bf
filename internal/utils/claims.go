package utils

import (
	"errors"

	"agentauth/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middleware.
const (
	LocalAgent = "agent"
	LocalToken = "token"
)

// GetAgent extracts the authenticated agent from the Fiber context.
// It returns an error if the agent is missing or of an invalid type.
func GetAgent(c *fiber.Ctx) (*models.Agent, error) {
	v := c.Locals(LocalAgent)
	if v == nil {
		return nil, errors.New("agent not found in context")
	}

	agent, ok := v.(*models.Agent)
	if !ok {
		return nil, errors.New("invalid agent type")
	}
	return agent, nil
}

// GetToken returns the bearer token the request was authenticated with.
func GetToken(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalToken).(string)
	return token
}
