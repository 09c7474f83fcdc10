// Package routes registers the endpoints of both services.
package routes

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/midjourney-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates route registration.
type Routes struct {
	handlers *handlers.Provider
	protect  gin.HandlerFunc
}

// NewRoutes builds the route table. protect guards the generate endpoints.
func NewRoutes(provider *handlers.Provider, protect gin.HandlerFunc) *Routes {
	if protect == nil {
		protect = func(c *gin.Context) { c.Next() }
	}
	return &Routes{handlers: provider, protect: protect}
}

// RegisterBot attaches the bot-backed service endpoints.
func (r *Routes) RegisterBot(router gin.IRouter) {
	r.registerCommon(router)
	router.POST("/generate", r.protect, r.handlers.Generate.Generate)
	router.POST("/generate-with-images", r.protect, r.handlers.Generate.GenerateWithImages)
}

// RegisterFallback attaches the fallback service endpoints.
func (r *Routes) RegisterFallback(router gin.IRouter) {
	r.registerCommon(router)
	router.POST("/generate", r.protect, r.handlers.Fallback.Generate)
}

func (r *Routes) registerCommon(router gin.IRouter) {
	router.GET("/", r.handlers.Health.Descriptor)
	router.GET("/health", r.handlers.Health.Health)
	router.GET("/images-list", r.handlers.Images.List)
}
