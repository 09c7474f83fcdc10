package fallback

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/media"
	"jan-server/services/midjourney-api/internal/utils/platformerrors"
)

type scriptedFetcher struct {
	calls   []string
	results map[string]error
}

func (f *scriptedFetcher) Fetch(ctx context.Context, target string) (*media.Image, error) {
	f.calls = append(f.calls, target)
	for prefix, err := range f.results {
		if strings.HasPrefix(target, prefix) {
			if err != nil {
				return nil, err
			}
			return &media.Image{Data: []byte("png"), ContentType: "image/png"}, nil
		}
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

type memoryStore struct {
	saved map[string][]byte
}

func (m *memoryStore) Save(_ context.Context, name string, data []byte, _ string) error {
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[name] = data
	return nil
}

func (m *memoryStore) Open(context.Context, string) (io.ReadCloser, string, error) {
	return nil, "", errors.New("not implemented")
}

func (m *memoryStore) List(context.Context) ([]media.Entry, error) { return nil, nil }

func newFallbackService(t *testing.T, fetcher media.Fetcher, providers ...string) (*Service, *memoryStore) {
	t.Helper()
	cfg := &config.Config{
		FallbackProviders:       providers,
		FallbackTimeout:         time.Second,
		FallbackDefaultBaseSize: 1024,
		PublicBaseURL:           "http://localhost:3147",
		DataDir:                 t.TempDir(),
	}
	store := &memoryStore{}
	svc := NewService(cfg, fetcher, store, zerolog.Nop())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, store
}

func TestGenerateUsesFirstSuccessfulProvider(t *testing.T) {
	fetcher := &scriptedFetcher{results: map[string]error{
		"https://one.example":   errors.New("status 502"),
		"https://two.example":   errors.New("status 500"),
		"https://three.example": nil,
	}}
	svc, store := newFallbackService(t, fetcher,
		"one|https://one.example/prompt/{prompt}?w={width}&h={height}",
		"two|https://two.example/p/{prompt}",
		"three|https://three.example/i?q={prompt}&size={width}x{height}",
	)

	result, err := svc.Generate(context.Background(), Request{
		Prompt:      "a red fox --ar 16:9 --v 6",
		AspectRatio: "16:9",
	})
	require.NoError(t, err)

	require.Len(t, fetcher.calls, 3)
	assert.Equal(t, "https://one.example/prompt/a%20red%20fox?w=1024&h=576", fetcher.calls[0])
	assert.Equal(t, "https://two.example/p/a%20red%20fox", fetcher.calls[1])
	assert.Equal(t, "https://three.example/i?q=a%20red%20fox&size=1024x576", fetcher.calls[2])

	assert.Equal(t, "three", result.Source)
	assert.Equal(t, "a red fox", result.Prompt)
	assert.Equal(t, "a red fox --ar 16:9 --v 6", result.OriginalPrompt)
	assert.Equal(t, "/images/fallback_1700000000000.png", result.LocalImagePath)
	assert.Equal(t, "http://localhost:3147/images/fallback_1700000000000.png", result.LocalImageURL)
	assert.True(t, strings.HasPrefix(result.MessageID, "fallback-"))
	assert.NotEmpty(t, result.Note)
	assert.Contains(t, store.saved, "fallback_1700000000000.png")
}

func TestGenerateAllProvidersFail(t *testing.T) {
	fetcher := &scriptedFetcher{results: map[string]error{
		"https://one.example": errors.New("status 502"),
		"https://two.example": errors.New("connection reset"),
	}}
	svc, _ := newFallbackService(t, fetcher, "one|https://one.example/{prompt}", "two|https://two.example/{prompt}")

	_, err := svc.Generate(context.Background(), Request{Prompt: "a fox"})
	require.Error(t, err)
	assert.Equal(t, "all fallback providers failed: connection reset", platformerrors.Message(err))
	assert.Equal(t, 500, platformerrors.HTTPStatus(err))
	assert.Len(t, fetcher.calls, 2)
}

func TestGenerateProviderTimeoutMovesOn(t *testing.T) {
	fetcher := &scriptedFetcher{results: map[string]error{
		"https://fast.example": nil,
	}}
	svc, _ := newFallbackService(t, fetcher, "slow|https://slow.example/{prompt}", "fast|https://fast.example/{prompt}")
	svc.cfg.FallbackTimeout = 20 * time.Millisecond

	result, err := svc.Generate(context.Background(), Request{Prompt: "a fox"})
	require.NoError(t, err)
	assert.Equal(t, "fast", result.Source)
	assert.Len(t, fetcher.calls, 2)
}

func TestGenerateValidation(t *testing.T) {
	svc, _ := newFallbackService(t, &scriptedFetcher{}, "one|https://one.example/{prompt}")

	_, err := svc.Generate(context.Background(), Request{Prompt: " "})
	require.Error(t, err)
	assert.Equal(t, 400, platformerrors.HTTPStatus(err))

	_, err = svc.Generate(context.Background(), Request{Prompt: "--ar 16:9"})
	require.Error(t, err)
	assert.Equal(t, 400, platformerrors.HTTPStatus(err))
}

func TestGenerateWritesDebugSnapshot(t *testing.T) {
	fetcher := &scriptedFetcher{results: map[string]error{"https://one.example": nil}}
	svc, _ := newFallbackService(t, fetcher, "one|https://one.example/{prompt}")
	svc.cfg.FallbackDebugSnapshots = true

	result, err := svc.Generate(context.Background(), Request{Prompt: "a fox", Speed: "fast"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(svc.cfg.DataDir, "debug", result.MessageID+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source": "one"`)
	assert.Contains(t, string(data), `"speed": "fast"`)
}

func TestParseProviders(t *testing.T) {
	providers := ParseProviders([]string{
		"named|https://a.example/{prompt}",
		" https://b.example/{prompt} ",
		"",
		"empty|",
	})
	require.Len(t, providers, 2)
	assert.Equal(t, Provider{Name: "named", Template: "https://a.example/{prompt}"}, providers[0])
	assert.Equal(t, Provider{Name: "provider-2", Template: "https://b.example/{prompt}"}, providers[1])
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		aspect, resolution string
		width, height      int
	}{
		{"", "", 1024, 1024},
		{"16:9", "", 1024, 576},
		{"9:16", "", 576, 1024},
		{"3:2", "2K", 2048, 1368},
		{"1:1", "768", 768, 768},
		{"16:9", "800x600", 800, 600},
		{"bogus", "8k", 1024, 1024},
		{"1:1", "99999", 4096, 4096},
		{"1:1000", "", 64, 1024},
		{"1000:1", "", 1024, 64},
	}
	for _, tt := range tests {
		w, h := Dimensions(tt.aspect, tt.resolution, 1024)
		assert.Equal(t, tt.width, w, "%s %s", tt.aspect, tt.resolution)
		assert.Equal(t, tt.height, h, "%s %s", tt.aspect, tt.resolution)
	}
}
