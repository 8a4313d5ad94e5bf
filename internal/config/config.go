package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment is resolved once at startup and passed to the services that
// behave differently outside production.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ParseEnvironment maps a raw ENV value to an Environment. Anything that is not
// "production" is treated as development.
func ParseEnvironment(v string) Environment {
	if strings.EqualFold(strings.TrimSpace(v), string(Production)) {
		return Production
	}
	return Development
}

type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN builds the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// OTPPolicy holds the one-time code constants. The defaults must not change
// unless reconfigured explicitly.
type OTPPolicy struct {
	CodeLength           int
	TTL                  time.Duration
	LockoutDuration      time.Duration
	MaxAttempts          int
	RequestCooldown      time.Duration
	RequestWindow        time.Duration
	MaxRequestsPerWindow int
}

// Config is the typed application configuration.
type Config struct {
	Env                 Environment
	Port                string
	CORSOrigins         string
	DB                  DBConfig
	Redis               RedisConfig
	JWTSecret           string
	SessionTTL          time.Duration
	AdminToken          string
	AuthRateLimit       int
	AgentCacheTTL       time.Duration
	AllowedCountryCodes []string
	OTP                 OTPPolicy
	CleanupInterval     time.Duration
	PolicyFile          string
}

// Default OTP policy values.
const (
	DefaultCodeLength      = 6
	DefaultOTPTTL          = 10 * time.Minute
	DefaultLockoutDuration = 30 * time.Minute
	DefaultMaxAttempts     = 5
)

// DefaultCountryCodes is the allow-list used when ALLOWED_COUNTRY_CODES is unset.
var DefaultCountryCodes = []string{"+212", "+33"}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetBoolEnv returns a bool environment variable or a default value.
func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// GetListEnv splits a comma separated environment variable.
func GetListEnv(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load builds the configuration from the environment and, when OTP_POLICY_FILE
// is set, overlays the policy file on top of it.
func Load() (*Config, error) {
	cfg := &Config{
		Env:         ParseEnvironment(GetEnv("ENV", string(Development))),
		Port:        GetEnv("PORT", "3000"),
		CORSOrigins: GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		DB: DBConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "agentauth"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:  GetBoolEnv("REDIS_ENABLED", true),
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		JWTSecret:           GetEnv("JWT_SECRET", ""),
		SessionTTL:          GetDurationEnv("SESSION_TTL", 24*time.Hour),
		AdminToken:          GetEnv("ADMIN_TOKEN", ""),
		AuthRateLimit:       GetIntEnv("AUTH_RATE_LIMIT", 20),
		AgentCacheTTL:       GetDurationEnv("AGENT_CACHE_TTL", 5*time.Minute),
		AllowedCountryCodes: GetListEnv("ALLOWED_COUNTRY_CODES", DefaultCountryCodes),
		OTP: OTPPolicy{
			CodeLength:           GetIntEnv("OTP_CODE_LENGTH", DefaultCodeLength),
			TTL:                  GetDurationEnv("OTP_TTL", DefaultOTPTTL),
			LockoutDuration:      GetDurationEnv("OTP_LOCKOUT_DURATION", DefaultLockoutDuration),
			MaxAttempts:          GetIntEnv("OTP_MAX_ATTEMPTS", DefaultMaxAttempts),
			RequestCooldown:      GetDurationEnv("OTP_REQUEST_COOLDOWN", 30*time.Second),
			RequestWindow:        GetDurationEnv("OTP_REQUEST_WINDOW", 15*time.Minute),
			MaxRequestsPerWindow: GetIntEnv("OTP_MAX_REQUESTS_PER_WINDOW", 5),
		},
		CleanupInterval: GetDurationEnv("OTP_CLEANUP_INTERVAL", 15*time.Minute),
		PolicyFile:      GetEnv("OTP_POLICY_FILE", ""),
	}

	if cfg.PolicyFile != "" {
		if err := ApplyPolicyFile(cfg, cfg.PolicyFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		c.JWTSecret = "dev-secret-change-me"
	}
	if len(c.AllowedCountryCodes) == 0 {
		return fmt.Errorf("at least one allowed country code is required")
	}
	if c.OTP.CodeLength < 4 || c.OTP.CodeLength > 10 {
		return fmt.Errorf("otp code length must be between 4 and 10, got %d", c.OTP.CodeLength)
	}
	if c.OTP.MaxAttempts <= 0 {
		return fmt.Errorf("otp max attempts must be positive, got %d", c.OTP.MaxAttempts)
	}
	if c.OTP.TTL <= 0 || c.OTP.LockoutDuration <= 0 {
		return fmt.Errorf("otp ttl and lockout duration must be positive")
	}
	return nil
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == Production
}

// ListenAddr returns the fiber listen address.
func (c *Config) ListenAddr() string {
	return ":" + c.Port
}
