package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/midjourney-api/internal/config"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newDownloader(maxBytes int64) *Downloader {
	return New(&config.Config{DownloadTimeout: 2 * time.Second, DownloadMaxBytes: maxBytes}, zerolog.Nop())
}

func TestFetchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	image, err := newDownloader(1024).Fetch(context.Background(), srv.URL+"/grid.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", image.ContentType)
	assert.Equal(t, pngBytes, image.Data)
}

func TestFetchFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.Error(w, "nope", http.StatusNotFound)
		case "/html":
			_, _ = w.Write([]byte("<html><body>rate limited</body></html>"))
		case "/big":
			_, _ = w.Write(append(pngBytes, make([]byte, 4096)...))
		case "/empty":
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	d := newDownloader(1024)
	tests := map[string]string{
		"/missing": "status 404",
		"/html":    "unexpected content type text/html",
		"/big":     "exceeds 1024 bytes",
		"/empty":   "empty",
	}
	for path, want := range tests {
		_, err := d.Fetch(context.Background(), srv.URL+path)
		require.Error(t, err, path)
		assert.True(t, strings.Contains(err.Error(), want), "%s: %v", path, err)
	}
}

func TestFetchHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newDownloader(0).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
