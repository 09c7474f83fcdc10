package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/fallback"
	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/infrastructure/auth"
	"jan-server/services/midjourney-api/internal/infrastructure/downloader"
	"jan-server/services/midjourney-api/internal/infrastructure/imagehost"
	"jan-server/services/midjourney-api/internal/infrastructure/midjourney"
	"jan-server/services/midjourney-api/internal/infrastructure/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ServiceName:             "midjourney-api",
		Version:                 "test",
		Environment:             "test",
		PublicBaseURL:           "http://localhost:3147",
		DataDir:                 dir,
		ImagesDir:               filepath.Join(dir, "images"),
		UploadsDir:              filepath.Join(dir, "uploads"),
		StorageBackend:          "local",
		EnableMetrics:           true,
		ShutdownTimeout:         time.Second,
		MJConnectTimeout:        time.Second,
		MJImagineTimeout:        time.Second,
		MJUpscaleTimeout:        time.Second,
		MJReferenceTimeout:      time.Second,
		DownloadTimeout:         time.Second,
		DownloadMaxBytes:        1 << 20,
		UploadMaxBytes:          1 << 20,
		UploadMaxFiles:          4,
		FallbackTimeout:         time.Second,
		FallbackDefaultBaseSize: 1024,
		FallbackProviders:       []string{"one|https://one.invalid/{prompt}", "two|https://two.invalid/{prompt}"},
	}
}

func newBotServer(t *testing.T) (*HttpServer, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	log := zerolog.Nop()

	images, err := storage.New(context.Background(), cfg, log)
	require.NoError(t, err)
	validator, err := auth.NewValidator(context.Background(), cfg, log)
	require.NoError(t, err)

	service := generation.NewService(cfg, midjourney.NewConnector(cfg, log), downloader.New(cfg, log), images,
		imagehost.NewImgbbPublisher(cfg, log), log)
	return New(cfg, log, service, images, validator), cfg
}

func serve(server *HttpServer, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestBotServerHealthBeforeConnect(t *testing.T) {
	server, _ := newBotServer(t)

	rec := serve(server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "not initialized", body["midjourney"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestBotServerGenerateWithoutCredentials(t *testing.T) {
	server, _ := newBotServer(t)

	rec := serve(server, http.MethodPost, "/generate", `{"prompt":"a fox"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "a fox", body["prompt"])
	assert.Contains(t, body["error"], "midjourney client initialization failed")

	rec = serve(server, http.MethodPost, "/generate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBotServerServesStoredImages(t *testing.T) {
	server, cfg := newBotServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ImagesDir, "generated_1.png"), []byte("png-bytes"), 0o644))

	rec := serve(server, http.MethodGet, "/images/generated_1.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = serve(server, http.MethodGet, "/images-list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http://localhost:3147/images/generated_1.png")

	rec = serve(server, http.MethodGet, "/images/missing.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBotServerOperationalEndpoints(t *testing.T) {
	server, _ := newBotServer(t)

	rec := serve(server, http.MethodGet, "/health/auth", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	serve(server, http.MethodGet, "/health", "")
	rec = serve(server, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jan_midjourney_api_requests_total")

	rec = serve(server, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Midjourney API")
}

func TestFallbackServerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	log := zerolog.Nop()

	images, err := storage.New(context.Background(), cfg, log)
	require.NoError(t, err)
	validator, err := auth.NewValidator(context.Background(), cfg, log)
	require.NoError(t, err)
	server := NewFallback(cfg, log, fallback.NewService(cfg, downloader.New(cfg, log), images, log), images, validator)

	rec := serve(server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body["providers"])

	rec = serve(server, http.MethodPost, "/generate", `{"prompt":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(server, http.MethodPost, "/generate-with-images", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
