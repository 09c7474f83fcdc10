// Package downloader fetches remote images into memory.
package downloader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/media"
	"jan-server/services/midjourney-api/internal/utils/platformerrors"
)

const userAgent = "jan-midjourney-api/2"

// Downloader implements media.Fetcher over resty.
type Downloader struct {
	client   *resty.Client
	maxBytes int64
	log      zerolog.Logger
}

// New creates a downloader bounded by DOWNLOAD_TIMEOUT and DOWNLOAD_MAX_BYTES.
func New(cfg *config.Config, log zerolog.Logger) *Downloader {
	client := resty.New().
		SetTimeout(cfg.DownloadTimeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "image/*")
	return &Downloader{
		client:   client,
		maxBytes: cfg.DownloadMaxBytes,
		log:      log.With().Str("component", "downloader").Logger(),
	}
}

// Fetch downloads url and checks that the body is an image.
func (d *Downloader) Fetch(ctx context.Context, url string) (*media.Image, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("image request failed: %v", err), err, "")
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= 400 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("image request returned status %d", resp.StatusCode()), nil, "")
	}

	reader := io.Reader(body)
	if d.maxBytes > 0 {
		reader = io.LimitReader(body, d.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("read image body: %v", err), err, "")
	}
	if d.maxBytes > 0 && int64(len(data)) > d.maxBytes {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("image exceeds %d bytes", d.maxBytes), nil, "")
	}
	if len(data) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"image response was empty", nil, "")
	}

	detected := mimetype.Detect(data).String()
	if !strings.HasPrefix(detected, "image/") {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("unexpected content type %s", detected), nil, "")
	}

	d.log.Debug().Str("url", url).Int("bytes", len(data)).Str("content_type", detected).Msg("image downloaded")
	return &media.Image{Data: data, ContentType: detected}, nil
}
