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
	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/infrastructure/auth"
	"jan-server/services/midjourney-api/internal/infrastructure/downloader"
	"jan-server/services/midjourney-api/internal/infrastructure/imagehost"
	"jan-server/services/midjourney-api/internal/infrastructure/janitor"
	"jan-server/services/midjourney-api/internal/infrastructure/logger"
	"jan-server/services/midjourney-api/internal/infrastructure/midjourney"
	"jan-server/services/midjourney-api/internal/infrastructure/observability"
	"jan-server/services/midjourney-api/internal/infrastructure/storage"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver"
)

// @title Midjourney API
// @version 2.0
// @description Generates images through Midjourney on Discord
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	cfg        *config.Config
	httpServer *httpserver.HttpServer
	connector  *midjourney.Connector
	janitor    *janitor.Janitor
	log        zerolog.Logger
}

func NewApplication(cfg *config.Config, httpServer *httpserver.HttpServer, connector *midjourney.Connector, sweeper *janitor.Janitor, log zerolog.Logger) *Application {
	return &Application{
		cfg:        cfg,
		httpServer: httpServer,
		connector:  connector,
		janitor:    sweeper,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	defer func() {
		if err := a.connector.Close(); err != nil {
			a.log.Error().Err(err).Msg("close discord session")
		}
	}()

	go func() {
		if err := a.janitor.Run(ctx); err != nil {
			a.log.Error().Err(err).Msg("upload janitor stopped")
		}
	}()
	if a.cfg.MJWarmup {
		go a.connector.Warmup(ctx)
	}
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

	connector := midjourney.NewConnector(cfg, log)
	generationService := generation.NewService(
		cfg,
		connector,
		downloader.New(cfg, log),
		images,
		imagehost.NewImgbbPublisher(cfg, log),
		log,
	)

	httpServer := httpserver.New(cfg, log, generationService, images, authValidator)
	app := NewApplication(cfg, httpServer, connector, janitor.New(cfg, log), log)

	if !cfg.MidjourneyConfigured() {
		log.Warn().Msg("SERVER_ID, CHANNEL_ID or SALAI_TOKEN missing; generate requests will fail until configured")
	}

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
