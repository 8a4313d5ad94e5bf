package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ALLOWED_COUNTRY_CODES", "")
	t.Setenv("OTP_POLICY_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"+212", "+33"}, cfg.AllowedCountryCodes)
	assert.Equal(t, 6, cfg.OTP.CodeLength)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 30*time.Minute, cfg.OTP.LockoutDuration)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("OTP_POLICY_FILE", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("ALLOWED_COUNTRY_CODES", " +212 , +33,, +34 ")
	assert.Equal(t, []string{"+212", "+33", "+34"}, GetListEnv("ALLOWED_COUNTRY_CODES", nil))

	t.Setenv("ALLOWED_COUNTRY_CODES", "")
	assert.Equal(t, []string{"x"}, GetListEnv("ALLOWED_COUNTRY_CODES", []string{"x"}))
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironment("Production"))
	assert.Equal(t, Development, ParseEnvironment("staging"))
	assert.Equal(t, Development, ParseEnvironment(""))
}

func TestApplyPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := `
allowed_country_codes:
  - "+212"
otp:
  ttl: "5m"
  max_attempts: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := &Config{
		AllowedCountryCodes: DefaultCountryCodes,
		OTP: OTPPolicy{
			CodeLength:      DefaultCodeLength,
			TTL:             DefaultOTPTTL,
			LockoutDuration: DefaultLockoutDuration,
			MaxAttempts:     DefaultMaxAttempts,
		},
	}
	require.NoError(t, ApplyPolicyFile(cfg, path))

	assert.Equal(t, []string{"+212"}, cfg.AllowedCountryCodes)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, DefaultLockoutDuration, cfg.OTP.LockoutDuration)
	assert.Equal(t, DefaultCodeLength, cfg.OTP.CodeLength)
}

func TestApplyPolicyFile_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("otp:\n  ttl: soon\n"), 0o600))

	err := ApplyPolicyFile(&Config{}, path)
	assert.ErrorContains(t, err, "otp.ttl")
}

func TestApplyPolicyFile_Missing(t *testing.T) {
	err := ApplyPolicyFile(&Config{}, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
