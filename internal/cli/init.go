// Package cli holds the classroom commands and their shared startup code.
package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"classroom/internal/config"
	"classroom/internal/log"
)

// SetupLogger builds the process logger at the given level and makes it the
// slog default.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{Level: log.ParseLevel(level), Component: log.ComponentApp})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. Once it
// fires, cleanup gets at most timeout to finish and then the returned channel
// closes.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		if cleanup == nil {
			return
		}
		bounded, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		cleanup(bounded)
		if errors.Is(bounded.Err(), context.DeadlineExceeded) {
			logger.Warn("Shutdown timeout reached", "timeout", timeout.String())
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
