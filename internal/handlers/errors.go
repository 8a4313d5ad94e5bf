package handlers

import (
	"strconv"

	apperrors "agentauth/internal/errors"
	"agentauth/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return fiber.StatusBadRequest
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindDuplicate:
		return fiber.StatusConflict
	case apperrors.KindInvalidCode, apperrors.KindExpired, apperrors.KindMaxAttempts, apperrors.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperrors.KindLocked, apperrors.KindRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the JSON error body for err. Internal details are
// logged, never returned.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	de, ok := apperrors.As(err)
	if !ok {
		de = apperrors.Internal(err)
	}

	status := StatusFor(de.Kind)
	if status == fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := fiber.Map{
		"error": de.Message,
		"code":  de.Code,
	}
	if de.Field != "" {
		body["field"] = de.Field
	}
	if de.Kind == apperrors.KindInvalidCode {
		body["remaining_attempts"] = de.Remaining
	}
	if de.LockedUntil != nil {
		body["locked_until"] = de.LockedUntil
	}
	if de.RetryAfter > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(de.RetryAfter.Seconds())))
	}
	return utils.Respond(c, status, body)
}
