package handlers

import (
	"agentauth/internal/models"
	"agentauth/internal/services/agent"
	"agentauth/internal/services/auth"
	"agentauth/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AgentHandler struct {
	agentService agent.Service
	authService  auth.Service
	log          *zap.Logger
}

func NewAgentHandler(agentService agent.Service, authService auth.Service, log *zap.Logger) *AgentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AgentHandler{agentService: agentService, authService: authService, log: log}
}

// GetProfile returns the authenticated agent
func (h *AgentHandler) GetProfile(c *fiber.Ctx) error {
	a, err := utils.GetAgent(c)
	if err != nil {
		return utils.Unauthorized(c, "Invalid session")
	}
	return utils.Success(c, a)
}

// UpdateProfile changes the name or email of the authenticated agent
func (h *AgentHandler) UpdateProfile(c *fiber.Ctx) error {
	a, err := utils.GetAgent(c)
	if err != nil {
		return utils.Unauthorized(c, "Invalid session")
	}

	var update models.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	updated, err := h.agentService.UpdateProfile(c.UserContext(), a.ID, update)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, updated)
}

// UpdateStatus sets an agent's status. Admin only.
func (h *AgentHandler) UpdateStatus(c *fiber.Ctx) error {
	var input struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	updated, err := h.authService.SetAgentStatus(c.UserContext(), c.Params("id"), input.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, updated)
}
