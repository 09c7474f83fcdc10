// Package requests decodes generate request bodies.
package requests

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"jan-server/services/midjourney-api/internal/domain/fallback"
	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/domain/prompt"
)

const maxPayloadBytes = 1 << 20

// DecodePayload reads a JSON, urlencoded or multipart body into one JSON
// document. Form fields sent once become strings, repeated fields arrays.
func DecodePayload(c *gin.Context) (gjson.Result, error) {
	switch c.ContentType() {
	case gin.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return gjson.Result{}, fmt.Errorf("invalid form body: %w", err)
		}
		return formDocument(c.Request.PostForm)
	case gin.MIMEMultipartPOSTForm:
		form, err := c.MultipartForm()
		if err != nil {
			return gjson.Result{}, fmt.Errorf("invalid multipart body: %w", err)
		}
		return formDocument(form.Value)
	default:
		if c.Request.Body == nil {
			return gjson.Parse("{}"), nil
		}
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes+1))
		if err != nil {
			return gjson.Result{}, fmt.Errorf("read body: %w", err)
		}
		if len(body) > maxPayloadBytes {
			return gjson.Result{}, fmt.Errorf("body exceeds %d bytes", maxPayloadBytes)
		}
		if strings.TrimSpace(string(body)) == "" {
			return gjson.Parse("{}"), nil
		}
		if !gjson.ValidBytes(body) {
			return gjson.Result{}, fmt.Errorf("invalid JSON body")
		}
		return gjson.ParseBytes(body), nil
	}
}

func formDocument(values url.Values) (gjson.Result, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	doc := []byte(`{}`)
	for _, key := range keys {
		vals := values[key]
		if key == "" || len(vals) == 0 {
			continue
		}
		var value any = vals
		if len(vals) == 1 {
			value = vals[0]
		}
		var err error
		if doc, err = sjson.SetBytes(doc, escapePathKey(key), value); err != nil {
			return gjson.Result{}, fmt.Errorf("encode form field %s: %w", key, err)
		}
	}
	return gjson.ParseBytes(doc), nil
}

// escapePathKey makes a form field name usable as a single sjson path element.
func escapePathKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		if strings.ContainsRune(`\.*?|#@:`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// PromptText returns the prompt field, or "" when it is missing or falsy.
func PromptText(payload gjson.Result) string {
	value := payload.Get("prompt")
	switch value.Type {
	case gjson.String, gjson.Number:
		return value.String()
	default:
		return ""
	}
}

// GenerateRequest maps the /generate payload onto the orchestrator request.
func GenerateRequest(payload gjson.Result) generation.GenerateRequest {
	return generation.GenerateRequest{
		Prompt:          PromptText(payload),
		ReferenceImages: prompt.CollectReferenceImages(payload),
		Params:          prompt.ParseParams(payload),
		UpscaleIndex:    generation.ParseUpscaleIndex(payload.Get("upscaleIndex").String()),
		UpscaleMethod:   generation.ParseUpscaleMethod(payload.Get("upscaleMethod").String()),
	}
}

// FallbackRequest maps the fallback /generate payload.
func FallbackRequest(payload gjson.Result) fallback.Request {
	return fallback.Request{
		Prompt:      PromptText(payload),
		Speed:       payload.Get("speed").String(),
		Resolution:  payload.Get("resolution").String(),
		AspectRatio: payload.Get("aspectRatio").String(),
		Stylization: payload.Get("stylization").String(),
	}
}
