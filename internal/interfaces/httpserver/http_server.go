package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	mjdocs "jan-server/services/midjourney-api/docs/swagger"
	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/fallback"
	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/domain/media"
	"jan-server/services/midjourney-api/internal/infrastructure/auth"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver/handlers"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver/middlewares"
	"jan-server/services/midjourney-api/internal/interfaces/httpserver/routes"
)

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg    *config.Config
	engine *gin.Engine
	log    zerolog.Logger
	name   string
}

// New constructs the bot-backed service.
func New(cfg *config.Config, log zerolog.Logger, service *generation.Service, images media.Store, authValidator *auth.Validator) *HttpServer {
	engine := newEngine(cfg, log, authValidator)
	engine.Use(static.Serve("/uploads", static.LocalFile(cfg.UploadsDir, false)))
	registerImageFiles(engine, cfg, images, log)

	provider := handlers.NewProvider(cfg, service, images, log)
	routes.NewRoutes(provider, authValidator.Middleware()).RegisterBot(engine)

	return &HttpServer{cfg: cfg, engine: engine, log: log, name: cfg.ServiceName}
}

// NewFallback constructs the fallback service.
func NewFallback(cfg *config.Config, log zerolog.Logger, service *fallback.Service, images media.Store, authValidator *auth.Validator) *HttpServer {
	engine := newEngine(cfg, log, authValidator)
	registerImageFiles(engine, cfg, images, log)

	provider := handlers.NewFallbackProvider(cfg, service, images, log)
	routes.NewRoutes(provider, authValidator.Middleware()).RegisterFallback(engine)

	return &HttpServer{cfg: cfg, engine: engine, log: log, name: cfg.ServiceName + "-fallback"}
}

// Handler exposes the engine, mainly for tests.
func (s *HttpServer) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Str("service", s.name).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newEngine(cfg *config.Config, log zerolog.Logger, authValidator *auth.Validator) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	mjdocs.SwaggerInfo.BasePath = "/"
	mjdocs.SwaggerInfo.Version = cfg.Version

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.UploadMaxBytes * int64(cfg.UploadMaxFiles+1)
	engine.Use(gin.Recovery(), middlewares.RequestID())
	if cfg.EnableTracing {
		engine.Use(middlewares.TracingMiddleware(cfg.ServiceName))
	}
	engine.Use(
		middlewares.MetricsMiddleware(),
		middlewares.RequestLoggerWithLogger(log),
		middlewares.CORSMiddleware(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/images", "/uploads", "/metrics"})),
	)

	engine.GET("/health/auth", func(c *gin.Context) {
		if authValidator.Ready() {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "initializing"})
	})
	if cfg.EnableMetrics {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return engine
}

// registerImageFiles serves stored images. Local directories go through the
// static middleware; other backends are streamed by the image handler.
func registerImageFiles(engine *gin.Engine, cfg *config.Config, images media.Store, log zerolog.Logger) {
	if cfg.IsLocalStorage() {
		engine.Use(static.Serve("/images", static.LocalFile(cfg.ImagesDir, false)))
		return
	}
	engine.GET("/images/:file", handlers.NewImageHandler(cfg, images, log).Serve)
}
