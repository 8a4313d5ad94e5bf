// Command agent_seed registers a single agent from the environment. It is
// used to bootstrap development and staging databases.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"agentauth/internal/config"
	apperrors "agentauth/internal/errors"
	"agentauth/internal/models"
	"agentauth/internal/repositories"
	"agentauth/internal/services/agent"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	input := models.RegisterAgentInput{
		PhoneNumber: os.Getenv("SEED_AGENT_PHONE"),
		CountryCode: config.GetEnv("SEED_AGENT_COUNTRY_CODE", "+212"),
		FirstName:   os.Getenv("SEED_AGENT_FIRST_NAME"),
		LastName:    os.Getenv("SEED_AGENT_LAST_NAME"),
		Email:       os.Getenv("SEED_AGENT_EMAIL"),
	}
	if input.PhoneNumber == "" || input.Email == "" || input.FirstName == "" || input.LastName == "" {
		log.Fatal("SEED_AGENT_PHONE, SEED_AGENT_EMAIL, SEED_AGENT_FIRST_NAME and SEED_AGENT_LAST_NAME must be set in environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := repositories.Open(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			zlog.Warn("failed to close database", zap.Error(err))
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		zlog.Fatal("failed to migrate", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	agents := agent.NewService(
		repositories.NewAgentRepository(db, nil, zlog),
		agent.Config{AllowedCountryCodes: cfg.AllowedCountryCodes},
		zlog,
	)

	created, err := agents.Register(ctx, input)
	if errors.Is(err, apperrors.ErrDuplicate) {
		zlog.Info("agent already exists", zap.String("field", duplicateField(err)))
		return
	}
	if err != nil {
		zlog.Fatal("failed to register agent", zap.Error(err))
	}

	zlog.Info("agent created",
		zap.String("agent_id", created.ID),
		zap.String("license_number", created.LicenseNumber),
	)
}

func duplicateField(err error) string {
	if de, ok := apperrors.As(err); ok {
		return de.Field
	}
	return ""
}
