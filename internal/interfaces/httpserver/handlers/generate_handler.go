package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/infrastructure/logger"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver/requests"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver/responses"
	"jan-server/services/midjourney-api/internal/utils/platformerrors"
)

// GenerateHandler exposes the bot-backed generate endpoints.
type GenerateHandler struct {
	cfg     *config.Config
	service Generator
	log     zerolog.Logger
}

func NewGenerateHandler(cfg *config.Config, service Generator, log zerolog.Logger) *GenerateHandler {
	return &GenerateHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "generate-handler").Logger(),
	}
}

// Generate godoc
// @Summary      Generate an image
// @Description  Runs /imagine, upscales the selected image and returns it as base64.
// @Tags         generate
// @Accept       json,x-www-form-urlencoded,mpfd
// @Produce      json
// @Param        request  body      object  true  "prompt, reference images and Midjourney parameters"
// @Success      200      {object}  responses.GenerateResponse
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]interface{}
// @Router       /generate [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	payload, err := requests.DecodePayload(c)
	if err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}

	req := requests.GenerateRequest(payload)
	if strings.TrimSpace(req.Prompt) == "" {
		platformerrors.WriteValidationError(c, generation.ErrMsgPromptRequired)
		return
	}
	h.log.Info().
		Str("prompt", logger.Prompt(req.Prompt)).
		Int("reference_images", len(req.ReferenceImages)).
		Msg("generate requested")

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		platformerrors.WriteFailure(c, err, h.log, gin.H{"prompt": req.Prompt})
		return
	}
	c.JSON(http.StatusOK, responses.NewGenerateResponse(result))
}

// GenerateWithImages godoc
// @Summary      Generate an image from uploaded references
// @Description  Publishes up to four uploaded images, runs /imagine with them and stores the first upscale.
// @Tags         generate
// @Accept       mpfd
// @Produce      json
// @Param        prompt  formData  string  true  "Prompt"
// @Param        images  formData  file    true  "Reference images (up to 4)"
// @Success      200     {object}  responses.ReferenceResponse
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]interface{}
// @Router       /generate-with-images [post]
func (h *GenerateHandler) GenerateWithImages(c *gin.Context) {
	payload, err := requests.DecodePayload(c)
	if err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	promptText := requests.PromptText(payload)
	if strings.TrimSpace(promptText) == "" {
		platformerrors.WriteValidationError(c, generation.ErrMsgPromptRequired)
		return
	}

	files, err := requests.SaveReferenceUploads(c, requests.UploadLimits{
		Dir:      h.cfg.UploadsDir,
		MaxFiles: h.cfg.UploadMaxFiles,
		MaxBytes: h.cfg.UploadMaxBytes,
	})
	if err != nil {
		var uploadErr *requests.UploadError
		if errors.As(err, &uploadErr) {
			platformerrors.WriteValidationError(c, uploadErr.Message)
			return
		}
		platformerrors.WriteFailure(c, err, h.log, gin.H{"prompt": promptText, "imagesReceived": requests.ReceivedImages(c)})
		return
	}
	if len(files) == 0 {
		platformerrors.WriteValidationError(c, generation.ErrMsgImageRequired)
		return
	}
	h.log.Info().
		Str("prompt", logger.Prompt(promptText)).
		Int("files", len(files)).
		Msg("generate with images requested")

	result, err := h.service.GenerateWithImages(c.Request.Context(), generation.ReferenceRequest{Prompt: promptText, Files: files})
	if err != nil {
		platformerrors.WriteFailure(c, err, h.log, gin.H{"prompt": promptText, "imagesReceived": len(files)})
		return
	}
	c.JSON(http.StatusOK, responses.NewReferenceResponse(result))
}
