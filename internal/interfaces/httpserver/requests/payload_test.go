package requests

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormDocument(t *testing.T) {
	doc, err := formDocument(url.Values{
		"prompt":   {"a fox"},
		"image[]":  {"https://x/1.png", "https://x/2.png"},
		"image[1]": {"https://x/3.png"},
		"a.b":      {"dotted"},
		"chaos":    {"0"},
		"":         {"ignored"},
	})
	require.NoError(t, err)

	assert.Equal(t, "a fox", doc.Get("prompt").String())
	assert.Equal(t, `["https://x/1.png","https://x/2.png"]`, doc.Get(escapePathKey("image[]")).Raw)
	assert.Equal(t, "https://x/3.png", doc.Get(escapePathKey("image[1]")).String())
	assert.Equal(t, "dotted", doc.Get(`a\.b`).String())
	assert.Equal(t, "0", doc.Get("chaos").String())
}

func TestGenerateRequestFromURLEncodedForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	form := url.Values{
		"prompt":  {"a fox"},
		"chaos":   {"0"},
		"stylize": {"0"},
		"tile":    {"false"},
		"image1":  {"https://x/1.png"},
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	payload, err := DecodePayload(c)
	require.NoError(t, err)

	req := GenerateRequest(payload)
	assert.Equal(t, "a fox", req.Prompt)
	assert.Equal(t, []string{"https://x/1.png"}, req.ReferenceImages)
	assert.Equal(t, []string{"--s 0", "--c 0"}, req.Params.Flags())
}
