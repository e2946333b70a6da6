// Package cli provides the financecalc command tree and the initialization
// steps shared by its commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"financecalc/internal/backend"
	"financecalc/internal/config"
	"financecalc/internal/finance"
	"financecalc/internal/log"
	"financecalc/internal/policy"
)

// SetupLogger builds the process logger from configuration and installs it
// as the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads a .env file for local development. Without a path the
// default ./.env is optional and errors are ignored. An explicit path must
// exist.
func LoadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadAndValidateConfig loads configuration from the environment, applies
// command-line overrides and validates the result.
func LoadAndValidateConfig(overrides ...func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// loadPolicy opens the configured policy backend and activates the policy
// it holds. The returned cleanup releases the backend.
func loadPolicy(ctx context.Context, cfg *config.Config, logger *log.Logger) (*policy.Provider, func(), error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	result, err := backend.NewFactory(logger).CreatePolicyBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Failed to close policy backend", log.FieldError, err.Error())
			}
		}
	}

	provider := policy.NewProvider(result.Store, logger)
	if err := provider.Reload(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load tax policy: %w", err)
	}
	return provider, cleanup, nil
}

// offlineEngine is an engine over the configured policy backend, for
// commands that calculate without running the server.
func offlineEngine(ctx context.Context, cfg *config.Config, logger *log.Logger) (*finance.Engine, func(), error) {
	provider, cleanup, err := loadPolicy(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return finance.NewEngine(provider), cleanup, nil
}
