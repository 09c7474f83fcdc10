//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/domain/media"
	"jan-server/services/midjourney-api/internal/infrastructure/auth"
	"jan-server/services/midjourney-api/internal/infrastructure/downloader"
	"jan-server/services/midjourney-api/internal/infrastructure/imagehost"
	"jan-server/services/midjourney-api/internal/infrastructure/janitor"
	"jan-server/services/midjourney-api/internal/infrastructure/logger"
	"jan-server/services/midjourney-api/internal/infrastructure/midjourney"
	"jan-server/services/midjourney-api/internal/infrastructure/storage"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver"
)

var generationSet = wire.NewSet(
	midjourney.NewConnector,
	wire.Bind(new(generation.BotProvider), new(*midjourney.Connector)),
	downloader.New,
	wire.Bind(new(media.Fetcher), new(*downloader.Downloader)),
	imagehost.NewImgbbPublisher,
	wire.Bind(new(generation.ReferencePublisher), new(*imagehost.ImgbbPublisher)),
	storage.New,
	provideImageWriter,
	generation.NewService,
)

// BuildApplication assembles the Midjourney API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		auth.NewValidator,
		generationSet,
		janitor.New,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func provideImageWriter(images media.Store) generation.ImageWriter {
	return images
}
