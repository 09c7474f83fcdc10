// Package imagehost publishes reference uploads where Midjourney can fetch them.
package imagehost

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/infrastructure/metrics"
)

const (
	targetImgbb = "imgbb"
	targetLocal = "local"
)

var errNoAPIKey = errors.New("IMGBB_API_KEY is not set")

// ImgbbPublisher uploads images to imgbb. When the upload fails the file is
// exposed through the service's own /uploads route instead.
type ImgbbPublisher struct {
	cfg    *config.Config
	client *resty.Client
	log    zerolog.Logger
}

// NewImgbbPublisher creates a publisher bounded by IMGBB_TIMEOUT.
func NewImgbbPublisher(cfg *config.Config, log zerolog.Logger) *ImgbbPublisher {
	return &ImgbbPublisher{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.ImgbbTimeout),
		log:    log.With().Str("component", "imgbb-publisher").Logger(),
	}
}

// Publish returns a public URL for the file at path. It never fails; the
// locally served URL is returned when imgbb cannot be used.
func (p *ImgbbPublisher) Publish(ctx context.Context, path string) string {
	url, err := p.upload(ctx, path)
	if err == nil {
		metrics.RecordReferenceUpload(targetImgbb, "success")
		p.log.Debug().Str("file", filepath.Base(path)).Str("url", url).Msg("reference image published")
		return url
	}

	metrics.RecordReferenceUpload(targetImgbb, "error")
	p.log.Warn().Err(err).Str("file", filepath.Base(path)).Msg("imgbb upload failed, serving reference locally")
	metrics.RecordReferenceUpload(targetLocal, "success")
	return p.cfg.PublicURL("/uploads/" + filepath.Base(path))
}

func (p *ImgbbPublisher) upload(ctx context.Context, path string) (string, error) {
	if p.cfg.ImgbbAPIKey == "" {
		return "", errNoAPIKey
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"key":   p.cfg.ImgbbAPIKey,
			"image": base64.StdEncoding.EncodeToString(data),
		}).
		Post(p.cfg.ImgbbEndpoint)
	if err != nil {
		return "", fmt.Errorf("imgbb request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("imgbb error (%d): %s", resp.StatusCode(), gjson.GetBytes(resp.Body(), "error.message").String())
	}

	url := gjson.GetBytes(resp.Body(), "data.url").String()
	if url == "" {
		return "", errors.New("imgbb response has no data.url")
	}
	return url, nil
}
