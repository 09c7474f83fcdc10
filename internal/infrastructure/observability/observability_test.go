package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/midjourney-api/internal/config"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		raw      string
		endpoint string
		insecure bool
	}{
		{"https://otel.example:4318", "otel.example:4318", false},
		{"http://collector:4318", "collector:4318", true},
		{"collector:4318", "collector:4318", true},
	}
	for _, tt := range tests {
		endpoint, insecure := normalizeEndpoint(tt.raw)
		assert.Equal(t, tt.endpoint, endpoint)
		assert.Equal(t, tt.insecure, insecure)
	}
}

func TestSetupWithoutExporter(t *testing.T) {
	cfg := &config.Config{ServiceName: "midjourney-api", Version: "test", Environment: "test"}
	shutdown, err := Setup(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	_, span := StartPhaseSpan(context.Background(), "image generation")
	RecordError(span, errors.New("boom"))
	span.End()

	assert.NoError(t, shutdown(context.Background()))
}
