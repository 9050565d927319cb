// Package cli provides common CLI initialization utilities shared by cmd/scadenze and
// cmd/reminder-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"scadenze/internal/backend"
	"scadenze/internal/config"
	"scadenze/internal/log"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL and sets it as
// the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.ErrorContext(context.Background(), "Configuration validation failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitBackend opens and migrates the database and wires every service. A failed
// migration exits the process before anything is served.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.Backend {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	b, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorType(err),
			"path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	return b
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// GracefulShutdown blocks until ctx is done, then runs shutdown bounded by timeout.
func GracefulShutdown(ctx context.Context, logger *log.Logger, timeout time.Duration, shutdown func(context.Context) error) error {
	<-ctx.Done()
	logger.InfoContext(context.Background(), "Shutdown signal received", log.FieldOperation, log.OpShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "Shutdown error", log.FieldError, err.Error())
		return err
	}
	logger.InfoContext(shutdownCtx, "Shutdown complete")
	return nil
}
