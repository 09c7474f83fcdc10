package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/media"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver/responses"
	"jan-server/services/midjourney-api/internal/utils/platformerrors"
)

// ImageHandler lists and serves stored images.
type ImageHandler struct {
	cfg   *config.Config
	store media.Store
	log   zerolog.Logger
}

func NewImageHandler(cfg *config.Config, store media.Store, log zerolog.Logger) *ImageHandler {
	return &ImageHandler{
		cfg:   cfg,
		store: store,
		log:   log.With().Str("component", "image-handler").Logger(),
	}
}

// List godoc
// @Summary      List stored images
// @Tags         images
// @Produce      json
// @Success      200  {object}  responses.ImageListResponse
// @Failure      500  {object}  map[string]string
// @Router       /images-list [get]
func (h *ImageHandler) List(c *gin.Context) {
	entries, err := h.store.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list images failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, responses.NewImageListResponse(entries, h.cfg.PublicURL))
}

// Serve streams one stored image.
func (h *ImageHandler) Serve(c *gin.Context) {
	body, contentType, err := h.store.Open(c.Request.Context(), c.Param("file"))
	if err != nil {
		if errors.Is(err, media.ErrNotFound) || errors.Is(err, media.ErrInvalidName) {
			platformerrors.WriteNotFound(c, "image not found")
			return
		}
		h.log.Error().Err(err).Str("file", c.Param("file")).Msg("open image failed")
		platformerrors.WriteInternalError(c, "could not read image")
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, -1, contentType, body, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}
