package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/infrastructure/logger"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver/requests"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver/responses"
	"jan-server/services/midjourney-api/internal/utils/platformerrors"
)

// FallbackHandler exposes the fallback generate endpoint.
type FallbackHandler struct {
	service FallbackGenerator
	log     zerolog.Logger
}

func NewFallbackHandler(service FallbackGenerator, log zerolog.Logger) *FallbackHandler {
	return &FallbackHandler{
		service: service,
		log:     log.With().Str("component", "fallback-handler").Logger(),
	}
}

// Generate godoc
// @Summary      Generate an image through public providers
// @Tags         fallback
// @Accept       json
// @Produce      json
// @Param        request  body      fallback.Request  true  "Fallback request"
// @Success      200      {object}  responses.FallbackResponse
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]interface{}
// @Router       /generate [post]
func (h *FallbackHandler) Generate(c *gin.Context) {
	payload, err := requests.DecodePayload(c)
	if err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}
	req := requests.FallbackRequest(payload)
	if strings.TrimSpace(req.Prompt) == "" {
		platformerrors.WriteValidationError(c, generation.ErrMsgPromptRequired)
		return
	}
	h.log.Info().Str("prompt", logger.Prompt(req.Prompt)).Msg("fallback generate requested")

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		platformerrors.WriteFailure(c, err, h.log, gin.H{"prompt": req.Prompt})
		return
	}
	c.JSON(http.StatusOK, responses.NewFallbackResponse(result))
}
