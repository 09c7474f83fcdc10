// Package storage keeps generated images on local disk or in S3.
package storage

import (
	"context"

	"github.com/rs/zerolog"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/media"
)

// New creates the storage backend selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (media.Store, error) {
	if cfg.IsS3Storage() {
		return NewS3Storage(ctx, cfg, log)
	}
	return NewLocalStorage(cfg, log)
}
