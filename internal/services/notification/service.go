// Package notification delivers one-time codes to agents. Delivery is logged
// until an SMS, email or WhatsApp provider is configured.
package notification

import (
	"context"
	"fmt"
	"time"

	"agentauth/internal/services/otp"
	"agentauth/internal/utils"

	"go.uber.org/zap"
)

// Service implements otp.Sender.
type Service struct {
	log *zap.Logger
	now func() time.Time
}

// NewService creates a new notification service.
func NewService(log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log.Named("notification"), now: time.Now}
}

// Send logs the delivery. The code itself only appears at debug level.
func (s *Service) Send(_ context.Context, d otp.Delivery) error {
	s.log.Info("otp delivery queued",
		zap.String("channel", d.Method),
		zap.String("recipient", utils.MaskPhone(d.PhoneNumber)),
		zap.Time("expires_at", d.ExpiresAt),
	)
	s.log.Debug("otp message",
		zap.String("recipient", d.PhoneNumber),
		zap.String("message", s.FormatMessage(d)),
	)
	return nil
}

// FormatMessage renders the text sent to the agent.
func (s *Service) FormatMessage(d otp.Delivery) string {
	minutes := int(d.ExpiresAt.Sub(s.now()).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("Your verification code is %s. It is valid for %d minutes.", d.Code, minutes)
}
