package notification

import (
	"context"
	"testing"
	"time"

	"agentauth/internal/services/otp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSend_MasksRecipientAtInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewService(zap.New(core))

	err := svc.Send(context.Background(), otp.Delivery{
		PhoneNumber: "612345678",
		Method:      "sms",
		Code:        "482913",
		ExpiresAt:   time.Now().Add(10 * time.Minute),
	})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "******678", fields["recipient"])
	assert.Equal(t, "sms", fields["channel"])
	for _, v := range fields {
		assert.NotEqual(t, "482913", v)
	}
}

func TestFormatMessage(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(nil)
	svc.now = func() time.Time { return now }

	msg := svc.FormatMessage(otp.Delivery{Code: "123456", ExpiresAt: now.Add(10 * time.Minute)})
	assert.Equal(t, "Your verification code is 123456. It is valid for 10 minutes.", msg)

	msg = svc.FormatMessage(otp.Delivery{Code: "123456", ExpiresAt: now})
	assert.Contains(t, msg, "valid for 1 minutes")
}
