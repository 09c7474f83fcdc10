package handlers

import (
	"context"

	"github.com/rs/zerolog"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/fallback"
	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/domain/media"
)

// Generator is the bot-backed orchestrator used by GenerateHandler.
type Generator interface {
	Generate(ctx context.Context, req generation.GenerateRequest) (*generation.GenerateResult, error)
	GenerateWithImages(ctx context.Context, req generation.ReferenceRequest) (*generation.ReferenceResult, error)
	BotReady() bool
}

// FallbackGenerator is the provider chain used by FallbackHandler.
type FallbackGenerator interface {
	Generate(ctx context.Context, req fallback.Request) (*fallback.Result, error)
	Providers() []fallback.Provider
}

// Provider wires HTTP handlers.
type Provider struct {
	Generate *GenerateHandler
	Fallback *FallbackHandler
	Images   *ImageHandler
	Health   *HealthHandler
}

// NewProvider wires the handlers of the bot-backed service.
func NewProvider(cfg *config.Config, service Generator, images media.Store, log zerolog.Logger) *Provider {
	return &Provider{
		Generate: NewGenerateHandler(cfg, service, log),
		Images:   NewImageHandler(cfg, images, log),
		Health:   NewBotHealthHandler(cfg, service.BotReady),
	}
}

// NewFallbackProvider wires the handlers of the fallback service.
func NewFallbackProvider(cfg *config.Config, service FallbackGenerator, images media.Store, log zerolog.Logger) *Provider {
	return &Provider{
		Fallback: NewFallbackHandler(service, log),
		Images:   NewImageHandler(cfg, images, log),
		Health:   NewFallbackHealthHandler(cfg, len(service.Providers())),
	}
}
