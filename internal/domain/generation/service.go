package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/media"
	"jan-server/services/midjourney-api/internal/domain/prompt"
	"jan-server/services/midjourney-api/internal/infrastructure/logger"
	"jan-server/services/midjourney-api/internal/infrastructure/metrics"
	"jan-server/services/midjourney-api/internal/infrastructure/observability"
	"jan-server/services/midjourney-api/internal/utils/platformerrors"
)

const (
	modeText      = "text"
	modeReference = "reference"
)

// Messages returned to clients for request validation failures.
const (
	ErrMsgPromptRequired = "prompt is required"
	ErrMsgImageRequired  = "at least one image is required"
)

// Service orchestrates Midjourney jobs: imagine, upscale, download.
type Service struct {
	cfg       *config.Config
	bots      BotProvider
	fetcher   media.Fetcher
	images    ImageWriter
	publisher ReferencePublisher
	// session serializes jobs on the single Discord session so that gateway
	// events of concurrent jobs cannot be confused.
	session *semaphore.Weighted
	log     zerolog.Logger
	now     func() time.Time
}

// NewService wires the orchestrator.
func NewService(cfg *config.Config, bots BotProvider, fetcher media.Fetcher, images ImageWriter, publisher ReferencePublisher, log zerolog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		bots:      bots,
		fetcher:   fetcher,
		images:    images,
		publisher: publisher,
		session:   semaphore.NewWeighted(1),
		log:       log.With().Str("component", "generation-service").Logger(),
		now:       time.Now,
	}
}

// BotReady reports whether the Midjourney client has been initialised.
func (s *Service) BotReady() bool {
	return s.bots.Ready()
}

// Generate runs imagine then upscale and returns the upscaled image bytes.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	result, err := s.generate(ctx, req)
	metrics.RecordGeneration(modeText, outcome(err))
	return result, err
}

func (s *Service) generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrMsgPromptRequired, nil, "")
	}

	bot, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	index := req.UpscaleIndex
	if index < minUpscaleIndex || index > maxUpscaleIndex {
		index = defaultUpscaleIndex
	}
	method := ParseUpscaleMethod(string(req.UpscaleMethod))
	compiled := prompt.Compile(req.ReferenceImages, prompt.Sanitize(req.Prompt), req.Params)

	s.log.Info().
		Str("prompt", logger.Prompt(compiled)).
		Int("reference_images", len(req.ReferenceImages)).
		Int("upscale_index", index).
		Str("upscale_method", string(method)).
		Msg("starting generation")

	var grid, upscaled *Job
	err = s.withSession(ctx, func() error {
		var err error
		grid, err = s.runPhase(ctx, PhaseImagine, s.cfg.MJImagineTimeout, func(ctx context.Context) (*Job, error) {
			return bot.Imagine(ctx, compiled)
		})
		if err != nil {
			return err
		}

		plan, err := planUpscale(ctx, grid, index, method)
		if err != nil {
			return err
		}
		if plan.phase == PhaseUpscaleFallback {
			s.log.Warn().Str("message_id", grid.ID).Msg("subtle variation unavailable, using creative upscale")
		}

		upscaled, err = s.runPhase(ctx, plan.phase, s.cfg.MJUpscaleTimeout, func(ctx context.Context) (*Job, error) {
			return bot.Custom(ctx, CustomAction{
				MessageID: grid.ID,
				Flags:     grid.Flags,
				CustomID:  plan.option.Custom,
				Content:   grid.Content,
			})
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	image, err := s.download(ctx, upscaled.URI)
	if err != nil {
		return nil, err
	}

	return &GenerateResult{
		MessageID:        grid.ID,
		UpscaleMessageID: upscaled.ID,
		OriginalPrompt:   req.Prompt,
		CompiledPrompt:   compiled,
		UpscaleIndex:     index,
		UpscaleMethod:    method,
		Image:            image.Data,
		ContentType:      image.ContentType,
		OriginalURI:      grid.URI,
		UpscaledURI:      upscaled.URI,
	}, nil
}

// GenerateWithImages publishes uploaded reference images, runs the job with
// them in front of the prompt and stores the first upscale locally.
// The uploaded files are removed when the call returns.
func (s *Service) GenerateWithImages(ctx context.Context, req ReferenceRequest) (*ReferenceResult, error) {
	defer s.cleanup(req.Files)
	result, err := s.generateWithImages(ctx, req)
	metrics.RecordGeneration(modeReference, outcome(err))
	return result, err
}

func (s *Service) generateWithImages(ctx context.Context, req ReferenceRequest) (*ReferenceResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrMsgPromptRequired, nil, "")
	}
	if len(req.Files) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrMsgImageRequired, nil, "")
	}

	cleaned := prompt.Sanitize(req.Prompt)

	urls := make([]string, 0, len(req.Files))
	for _, file := range req.Files {
		url := s.publisher.Publish(ctx, file.Path)
		if url == "" {
			s.log.Warn().Str("file", file.Filename).Msg("reference image could not be published")
			continue
		}
		urls = append(urls, url)
	}
	if len(urls) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"no reference image could be published", nil, "")
	}

	bot, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	compiled := prompt.Compile(urls, cleaned, prompt.Params{})
	s.log.Info().
		Str("prompt", logger.Prompt(compiled)).
		Int("reference_images", len(urls)).
		Msg("starting generation with reference images")

	var grid, upscaled *Job
	err = s.withSession(ctx, func() error {
		var err error
		grid, err = s.runPhase(ctx, PhaseImagineReference, s.cfg.MJReferenceTimeout, func(ctx context.Context) (*Job, error) {
			return bot.Imagine(ctx, compiled)
		})
		if err != nil {
			return err
		}

		options := UpscaleOptions(grid)
		if len(options) == 0 {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
				"no upscale options available", nil, "")
		}

		upscaled, err = s.runPhase(ctx, PhaseUpscaleReference, s.cfg.MJReferenceTimeout, func(ctx context.Context) (*Job, error) {
			return bot.Custom(ctx, CustomAction{
				MessageID: grid.ID,
				Flags:     grid.Flags,
				CustomID:  options[0].Custom,
				Content:   grid.Content,
			})
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	image, err := s.download(ctx, upscaled.URI)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("with_images_%d.jpg", s.now().UnixMilli())
	if err := s.images.Save(ctx, filename, image.Data, image.ContentType); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			fmt.Sprintf("store generated image: %v", err), err, "")
	}

	localPath := "/images/" + filename
	return &ReferenceResult{
		MessageID:       grid.ID,
		OriginalPrompt:  req.Prompt,
		CleanedPrompt:   cleaned,
		ReferenceImages: urls,
		ImagesUploaded:  len(req.Files),
		LocalImagePath:  localPath,
		LocalImageURL:   s.cfg.PublicURL(localPath),
		MidjourneyURI:   upscaled.URI,
	}, nil
}

func (s *Service) connect(ctx context.Context) (Bot, error) {
	bot, err := s.bots.Bot(ctx)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			fmt.Sprintf("midjourney client initialization failed: %v", err), err, "")
	}
	return bot, nil
}

func (s *Service) withSession(ctx context.Context, fn func() error) error {
	if err := s.session.Acquire(ctx, 1); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"request cancelled while waiting for the midjourney session", err, "")
	}
	defer s.session.Release(1)
	return fn()
}

// runPhase bounds one external call by its own deadline.
func (s *Service) runPhase(ctx context.Context, phase string, timeout time.Duration, call func(context.Context) (*Job, error)) (*Job, error) {
	phaseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	phaseCtx, span := observability.StartPhaseSpan(phaseCtx, phase, attribute.Int64("generation.timeout_ms", timeout.Milliseconds()))
	defer span.End()

	start := time.Now()
	job, err := call(phaseCtx)
	if err == nil && job == nil {
		err = errors.New("midjourney returned no message")
	}
	if err == nil {
		metrics.RecordPhase(phase, "success", time.Since(start).Seconds())
		s.log.Info().Str("phase", phase).Str("message_id", job.ID).Dur("elapsed", time.Since(start)).Msg("phase completed")
		return job, nil
	}

	observability.RecordError(span, err)
	if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(phaseCtx.Err(), context.DeadlineExceeded)) {
		metrics.RecordPhase(phase, "timeout", time.Since(start).Seconds())
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeTimeout,
			"timeout during "+phase, err, "", map[string]any{"phase": phase, "timeout": timeout.String()})
	}

	metrics.RecordPhase(phase, "error", time.Since(start).Seconds())
	return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
		fmt.Sprintf("%s failed: %s", phase, platformerrors.Message(err)), err, "", map[string]any{"phase": phase})
}

func (s *Service) download(ctx context.Context, url string) (*media.Image, error) {
	downloadCtx := ctx
	if s.cfg.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		downloadCtx, cancel = context.WithTimeout(ctx, s.cfg.DownloadTimeout)
		defer cancel()
	}
	downloadCtx, span := observability.StartPhaseSpan(downloadCtx, PhaseDownload)
	defer span.End()

	start := time.Now()
	image, err := s.fetcher.Fetch(downloadCtx, url)
	if err == nil {
		metrics.RecordPhase(PhaseDownload, "success", time.Since(start).Seconds())
		return image, nil
	}

	observability.RecordError(span, err)
	if ctx.Err() == nil && (isTimeout(err) || errors.Is(downloadCtx.Err(), context.DeadlineExceeded)) {
		metrics.RecordPhase(PhaseDownload, "timeout", time.Since(start).Seconds())
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeTimeout,
			"timeout during "+PhaseDownload, err, "", map[string]any{"phase": PhaseDownload, "timeout": s.cfg.DownloadTimeout.String()})
	}
	metrics.RecordPhase(PhaseDownload, "error", time.Since(start).Seconds())
	return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
		fmt.Sprintf("download upscaled image: %s", platformerrors.Message(err)), err, "")
}

// isTimeout also catches HTTP client timeouts, which are not context errors.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (s *Service) cleanup(files []ReferenceFile) {
	for _, file := range files {
		if file.Path == "" {
			continue
		}
		if err := os.Remove(file.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("file", file.Filename).Msg("temporary upload cleanup failed")
		}
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
