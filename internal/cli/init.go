// Package cli provides common initialization for the compass binaries.
// It consolidates patterns shared by cmd/compassd and cmd/compass.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"compass/internal/config"
	"compass/internal/identity"
	"compass/internal/log"
	"compass/internal/storage"
)

// SetupLogger initializes structured logging with default settings and
// installs it as the process default.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	if os.Getenv("LOG_LEVEL") == "debug" {
		cfg.Level = slog.LevelDebug
		cfg.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are
// ignored silently as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting
// the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// InitStorage opens the SQLite repository at dbPath, exiting the process
// on failure.
func InitStorage(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err.Error(),
			"path", dbPath)
		os.Exit(1)
	}
	return repo
}

// IdentityFromConfig builds the identity provider for the CLI from
// configuration.
func IdentityFromConfig(cfg *config.Config) identity.Provider {
	return identity.Static{
		UserID: cfg.IdentityUserID,
		Email:  cfg.IdentityEmail,
	}
}
