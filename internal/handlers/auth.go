package handlers

import (
	"strings"

	"agentauth/internal/models"
	"agentauth/internal/services/auth"
	"agentauth/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService auth.Service
	log         *zap.Logger
}

func NewAuthHandler(authService auth.Service, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{authService: authService, log: log}
}

// Register creates an agent and issues the first code
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input struct {
		models.RegisterAgentInput
		DeliveryMethod string `json:"delivery_method"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	result, err := h.authService.Register(c.UserContext(), input.RegisterAgentInput, input.DeliveryMethod)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Created(c, result)
}

// SendOTP issues a new code for a registered phone number
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var input struct {
		PhoneNumber    string `json:"phone_number"`
		DeliveryMethod string `json:"delivery_method"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	issued, err := h.authService.SendCode(c.UserContext(), input.PhoneNumber, input.DeliveryMethod)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{
		"message": "Verification code sent",
		"otp":     issued,
	})
}

// VerifyOTP completes login and returns a session token
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var input struct {
		PhoneNumber string `json:"phone_number"`
		Code        string `json:"code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	login, err := h.authService.VerifyCode(c.UserContext(), input.PhoneNumber, input.Code)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, login)
}

// RefreshToken exchanges a valid token for a new one. The token is read from
// the body, then from the Authorization header.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var input struct {
		Token string `json:"token"`
	}
	_ = c.BodyParser(&input)

	token := input.Token
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		return utils.Unauthorized(c, "Token not provided")
	}

	next, err := h.authService.Refresh(c.UserContext(), token)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{
		"token":      next.Token,
		"expires_in": next.ExpiresIn,
	})
}

// Logout revokes the session the request was authenticated with
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), utils.GetToken(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return utils.Success(c, fiber.Map{
		"message": "Successfully logged out",
	})
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
