package imagehost

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/midjourney-api/internal/config"
)

func writeUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload_1_abc.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))
	return path
}

func publisherFor(endpoint, key string) *ImgbbPublisher {
	return NewImgbbPublisher(&config.Config{
		ImgbbAPIKey:   key,
		ImgbbEndpoint: endpoint,
		ImgbbTimeout:  2 * time.Second,
		PublicBaseURL: "http://localhost:3147",
	}, zerolog.Nop())
}

func TestPublishReturnsHostedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("key"))
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), r.PostForm.Get("image"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"url":"https://i.ibb.co/x/upload.png"},"success":true}`))
	}))
	defer srv.Close()

	url := publisherFor(srv.URL, "secret").Publish(context.Background(), writeUpload(t))
	assert.Equal(t, "https://i.ibb.co/x/upload.png", url)
}

func TestPublishFallsBackToLocalURL(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API v1 key."}}`))
	}))
	defer failing.Close()
	noURL := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer noURL.Close()

	want := "http://localhost:3147/uploads/upload_1_abc.png"
	assert.Equal(t, want, publisherFor(failing.URL, "bad").Publish(context.Background(), writeUpload(t)))
	assert.Equal(t, want, publisherFor(noURL.URL, "key").Publish(context.Background(), writeUpload(t)))
	assert.Equal(t, want, publisherFor("http://127.0.0.1:1", "").Publish(context.Background(), writeUpload(t)))
}
