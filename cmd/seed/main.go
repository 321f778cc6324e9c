package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"finocr/internal/api"
	"finocr/internal/service"
	"finocr/pkg/config"
	"finocr/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Fixture lists accounts to create on a backend.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
}

type FixtureUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

func main() {
	fixturePath := flag.String("fixture", "cmd/seed/users.yaml", "YAML file with the accounts to register")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		appLogger.Error("Failed to load fixture", zap.String("path", *fixturePath), zap.Error(err))
		os.Exit(1)
	}

	client := api.NewClient(&cfg.API, nil, appLogger)
	appLogger.Info("Starting account seeding...", zap.String("api", cfg.API.BaseURL), zap.Int("users", len(fixture.Users)))

	created, failed := seedUsers(context.Background(), client, fixture.Users, appLogger)
	appLogger.Info("Account seeding completed", zap.Int("created", created), zap.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}

func loadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &fixture, nil
}

// seedUsers registers each account. Invalid entries and accounts that
// already exist are skipped; other failures are counted.
func seedUsers(ctx context.Context, client *api.Client, users []FixtureUser, log *zap.Logger) (created, failed int) {
	for _, u := range users {
		if err := service.ValidateRegistration(u.Username, u.Email, u.Password); err != nil {
			log.Warn("Skipping invalid fixture entry", zap.String("username", u.Username), zap.Error(err))
			continue
		}

		_, err := client.Register(ctx, u.Username, u.Email, u.Password)
		switch {
		case err == nil:
			created++
			log.Info("Registered user", zap.String("username", u.Username))
		case api.IsStatus(err, http.StatusConflict), api.IsStatus(err, http.StatusBadRequest):
			log.Info("User already exists, skipping", zap.String("username", u.Username), zap.Error(err))
		default:
			failed++
			log.Error("Failed to register user", zap.String("username", u.Username), zap.Error(err))
		}
	}
	return created, failed
}
