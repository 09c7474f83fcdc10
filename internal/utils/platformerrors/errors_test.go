package platformerrors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeUnauthorized, http.StatusUnauthorized},
		{ErrorTypeTimeout, http.StatusInternalServerError},
		{ErrorTypeExternal, http.StatusInternalServerError},
		{ErrorTypeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorTypeToHTTPStatus(tt.errorType))
		})
	}
}

func TestNewErrorCarriesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	cause := errors.New("boom")
	err := NewError(ctx, LayerDomain, ErrorTypeExternal, "imagine failed", cause, "")

	assert.Equal(t, "req-1", err.RequestID)
	assert.NotEmpty(t, err.UUID)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, "imagine failed", Message(wrapped))
	assert.True(t, IsErrorType(wrapped, ErrorTypeExternal))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestWriteFailureMergesExtraFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	err := NewError(context.Background(), LayerDomain, ErrorTypeValidation, "prompt is required", nil, "")
	WriteFailure(c, err, zerolog.Nop(), gin.H{"prompt": ""})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "prompt is required", body["error"])
	assert.Contains(t, body, "prompt")
}
