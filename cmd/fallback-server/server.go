package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/fallback"
	"jan-server/services/midjourney-api/internal/infrastructure/auth"
	"jan-server/services/midjourney-api/internal/infrastructure/downloader"
	"jan-server/services/midjourney-api/internal/infrastructure/logger"
	"jan-server/services/midjourney-api/internal/infrastructure/observability"
	"jan-server/services/midjourney-api/internal/infrastructure/storage"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver"
)

// Application runs the fallback image service.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{httpServer: httpServer, log: log}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	images, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth")
	}

	fallbackService := fallback.NewService(cfg, downloader.New(cfg, log), images, log)
	log.Info().Int("providers", len(fallbackService.Providers())).Msg("fallback providers loaded")

	app := NewApplication(httpserver.NewFallback(cfg, log, fallbackService, images, authValidator), log)
	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
