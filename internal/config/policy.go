package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PolicyFile is the YAML overlay for the OTP policy and the country allow-list.
// Durations are written as Go duration strings ("10m", "30m").
type PolicyFile struct {
	AllowedCountryCodes []string `yaml:"allowed_country_codes"`
	OTP                 struct {
		CodeLength           int    `yaml:"code_length"`
		TTL                  string `yaml:"ttl"`
		LockoutDuration      string `yaml:"lockout_duration"`
		MaxAttempts          int    `yaml:"max_attempts"`
		RequestCooldown      string `yaml:"request_cooldown"`
		RequestWindow        string `yaml:"request_window"`
		MaxRequestsPerWindow int    `yaml:"max_requests_per_window"`
	} `yaml:"otp"`
}

// ApplyPolicyFile reads the YAML file at path and overrides the matching
// fields of cfg. Fields left empty in the file keep their current value.
func ApplyPolicyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading policy file: %w", err)
	}

	var pf PolicyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("parsing policy file: %w", err)
	}

	if len(pf.AllowedCountryCodes) > 0 {
		cfg.AllowedCountryCodes = pf.AllowedCountryCodes
	}
	if pf.OTP.CodeLength > 0 {
		cfg.OTP.CodeLength = pf.OTP.CodeLength
	}
	if pf.OTP.MaxAttempts > 0 {
		cfg.OTP.MaxAttempts = pf.OTP.MaxAttempts
	}
	if pf.OTP.MaxRequestsPerWindow > 0 {
		cfg.OTP.MaxRequestsPerWindow = pf.OTP.MaxRequestsPerWindow
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"otp.ttl", pf.OTP.TTL, &cfg.OTP.TTL},
		{"otp.lockout_duration", pf.OTP.LockoutDuration, &cfg.OTP.LockoutDuration},
		{"otp.request_cooldown", pf.OTP.RequestCooldown, &cfg.OTP.RequestCooldown},
		{"otp.request_window", pf.OTP.RequestWindow, &cfg.OTP.RequestWindow},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return nil
}
