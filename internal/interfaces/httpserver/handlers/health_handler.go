package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver/responses"
)

// HealthHandler answers the health and descriptor endpoints.
type HealthHandler struct {
	cfg         *config.Config
	name        string
	message     string
	description string
	endpoints   map[string]string
	botReady    func() bool
	providers   int
	now         func() time.Time
}

func NewBotHealthHandler(cfg *config.Config, botReady func() bool) *HealthHandler {
	return &HealthHandler{
		cfg:         cfg,
		name:        "Midjourney API",
		message:     "Midjourney API is running",
		description: "REST API wrapper for the Midjourney Discord bot",
		endpoints: map[string]string{
			"generate":           "POST /generate",
			"generateWithImages": "POST /generate-with-images",
			"health":             "GET /health",
			"images":             "GET /images/",
			"imagesList":         "GET /images-list",
		},
		botReady: botReady,
		now:      time.Now,
	}
}

func NewFallbackHealthHandler(cfg *config.Config, providers int) *HealthHandler {
	return &HealthHandler{
		cfg:         cfg,
		name:        "Midjourney API (fallback)",
		message:     "Midjourney fallback API is running",
		description: "Image generation through public text-to-image endpoints",
		endpoints: map[string]string{
			"generate":   "POST /generate",
			"health":     "GET /health",
			"images":     "GET /images/",
			"imagesList": "GET /images-list",
		},
		providers: providers,
		now:       time.Now,
	}
}

// Health godoc
// @Summary      Service health
// @Tags         health
// @Produce      json
// @Success      200  {object}  responses.HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := responses.HealthResponse{
		Status:    "ok",
		Message:   h.message,
		Timestamp: responses.Timestamp(h.now()),
	}
	if h.botReady != nil {
		resp.Midjourney = "not initialized"
		if h.botReady() {
			resp.Midjourney = "initialized"
		}
	} else {
		resp.Service = h.cfg.ServiceName
		resp.Version = h.cfg.Version
		resp.Providers = h.providers
	}
	c.JSON(http.StatusOK, resp)
}

// Descriptor godoc
// @Summary      Service descriptor
// @Tags         health
// @Produce      json
// @Success      200  {object}  responses.DescriptorResponse
// @Router       / [get]
func (h *HealthHandler) Descriptor(c *gin.Context) {
	c.JSON(http.StatusOK, responses.DescriptorResponse{
		Name:        h.name,
		Version:     h.cfg.Version,
		Description: h.description,
		Endpoints:   h.endpoints,
		Status:      "online",
		Timestamp:   responses.Timestamp(h.now()),
	})
}
