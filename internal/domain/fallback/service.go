// Package fallback generates images through public text-to-image endpoints
// when the Discord-driven path is not available.
package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/media"
	"jan-server/services/midjourney-api/internal/domain/prompt"
	"jan-server/services/midjourney-api/internal/infrastructure/logger"
	"jan-server/services/midjourney-api/internal/infrastructure/metrics"
	"jan-server/services/midjourney-api/internal/infrastructure/observability"
	"jan-server/services/midjourney-api/internal/utils/platformerrors"
)

const resultNote = "generated by a public fallback provider; Midjourney parameters are not applied"

// Service tries each provider in order and keeps the first image returned.
type Service struct {
	cfg       *config.Config
	providers []Provider
	fetcher   media.Fetcher
	images    media.Store
	log       zerolog.Logger
	now       func() time.Time
}

// NewService builds the fallback chain from cfg.FallbackProviders.
func NewService(cfg *config.Config, fetcher media.Fetcher, images media.Store, log zerolog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		providers: ParseProviders(cfg.FallbackProviders),
		fetcher:   fetcher,
		images:    images,
		log:       log.With().Str("component", "fallback-service").Logger(),
		now:       time.Now,
	}
}

// Providers returns the configured provider chain.
func (s *Service) Providers() []Provider {
	return s.providers
}

// Generate strips Midjourney flags from the prompt and returns the first
// provider image, stored locally.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	result, err := s.generate(ctx, req)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordGeneration("fallback", status)
	return result, err
}

func (s *Service) generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "prompt is required", nil, "")
	}
	stripped := prompt.StripFlags(prompt.Sanitize(req.Prompt))
	if stripped == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"prompt is empty once parameters are removed", nil, "")
	}
	if len(s.providers) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"no fallback providers configured", nil, "")
	}

	started := s.now()
	messageID := "fallback-" + strings.ToLower(ulid.Make().String())
	width, height := Dimensions(req.AspectRatio, req.Resolution, s.cfg.FallbackDefaultBaseSize)
	snapshot := Snapshot{
		MessageID: messageID,
		Request:   req,
		Prompt:    stripped,
		Width:     width,
		Height:    height,
		StartedAt: started.UTC().Format(time.RFC3339Nano),
	}
	defer func() {
		snapshot.FinishedAt = s.now().UTC().Format(time.RFC3339Nano)
		s.writeSnapshot(snapshot)
	}()

	values := map[string]string{
		"{prompt}": encodeComponent(stripped),
		"{width}":  strconv.Itoa(width),
		"{height}": strconv.Itoa(height),
		"{seed}":   strconv.FormatInt(started.UnixNano()%1_000_000_000, 10),
		"{aspect}": encodeComponent(strings.TrimSpace(req.AspectRatio)),
	}

	s.log.Info().
		Str("prompt", logger.Prompt(stripped)).
		Int("width", width).
		Int("height", height).
		Int("providers", len(s.providers)).
		Msg("starting fallback generation")

	var lastErr error
	for _, provider := range s.providers {
		target := expandTemplate(provider.Template, values)
		image, attempt, err := s.try(ctx, provider, target)
		snapshot.Attempts = append(snapshot.Attempts, attempt)
		if err != nil {
			lastErr = err
			s.log.Warn().Err(err).Str("provider", provider.Name).Msg("fallback provider failed")
			continue
		}

		filename := fmt.Sprintf("fallback_%d%s", s.now().UnixMilli(), media.ExtensionFor(image.ContentType))
		if err := s.images.Save(ctx, filename, image.Data, image.ContentType); err != nil {
			snapshot.Error = err.Error()
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
				fmt.Sprintf("store generated image: %v", err), err, "")
		}

		localPath := "/images/" + filename
		snapshot.Source = provider.Name
		snapshot.ImagePath = localPath
		return &Result{
			MessageID:      messageID,
			Prompt:         stripped,
			OriginalPrompt: req.Prompt,
			Source:         provider.Name,
			LocalImagePath: localPath,
			LocalImageURL:  s.cfg.PublicURL(localPath),
			Note:           resultNote,
		}, nil
	}

	if ctx.Err() != nil {
		lastErr = ctx.Err()
	}
	snapshot.Error = lastErr.Error()
	return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
		fmt.Sprintf("all fallback providers failed: %v", lastErr), lastErr, "")
}

func (s *Service) try(ctx context.Context, provider Provider, target string) (*media.Image, Attempt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FallbackTimeout)
	defer cancel()
	ctx, span := observability.StartProviderSpan(ctx, provider.Name, "generate")
	defer span.End()

	start := time.Now()
	image, err := s.fetcher.Fetch(ctx, target)
	attempt := Attempt{
		Provider:   provider.Name,
		URL:        target,
		Status:     "success",
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		observability.RecordError(span, err)
		attempt.Status = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			attempt.Status = "timeout"
		}
		attempt.Error = err.Error()
	}
	metrics.RecordFallbackAttempt(provider.Name, attempt.Status)
	return image, attempt, err
}

func (s *Service) writeSnapshot(snapshot Snapshot) {
	if !s.cfg.FallbackDebugSnapshots {
		return
	}
	dir := filepath.Join(s.cfg.DataDir, "debug")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Warn().Err(err).Msg("create debug snapshot directory")
		return
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		s.log.Warn().Err(err).Msg("encode debug snapshot")
		return
	}
	path := filepath.Join(dir, snapshot.MessageID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("write debug snapshot")
	}
}

func expandTemplate(template string, values map[string]string) string {
	out := template
	for placeholder, value := range values {
		out = strings.ReplaceAll(out, placeholder, value)
	}
	return out
}

// encodeComponent escapes text for use in both URL paths and query strings.
func encodeComponent(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
