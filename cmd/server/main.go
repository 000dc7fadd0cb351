package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/bootstrap"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/config"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/logging"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Logging
	logger := logging.Setup(cfg.LogLevel, cfg.LogPretty)
	logger.Info().Str("store", cfg.StoreBackend).Str("dataDir", cfg.DataDir).Msg("Configuration loaded")

	// 3. Wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Initialize Store, Repositories and Services
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Startup failed")
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn().Err(err).Msg("Store close failed")
		}
	}()

	// 5. Run HTTP Server and Workers until shutdown
	if err := app.Serve(ctx); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		stop()
		app.Close()
		os.Exit(1)
	}
}
