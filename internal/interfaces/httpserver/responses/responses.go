// Package responses defines the JSON bodies returned by both services.
package responses

import (
	"encoding/base64"
	"time"

	"jan-server/services/midjourney-api/internal/domain/fallback"
	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/domain/media"
)

const statusCompleted = "completed"

// GenerateResponse is the /generate success body.
type GenerateResponse struct {
	Success               bool   `json:"success"`
	MessageID             string `json:"messageId"`
	UpscaleMessageID      string `json:"upscaleMessageId"`
	OriginalPrompt        string `json:"originalPrompt"`
	CleanedPrompt         string `json:"cleanedPrompt"`
	Status                string `json:"status"`
	UpscaleIndex          int    `json:"upscaleIndex"`
	UpscaleMethod         string `json:"upscaleMethod"`
	Image                 string `json:"image"`
	MidjourneyOriginalURI string `json:"midjourneyOriginalUri"`
	MidjourneyUpscaledURI string `json:"midjourneyUpscaledUri"`
}

// NewGenerateResponse encodes the upscaled image as base64.
func NewGenerateResponse(result *generation.GenerateResult) GenerateResponse {
	return GenerateResponse{
		Success:               true,
		MessageID:             result.MessageID,
		UpscaleMessageID:      result.UpscaleMessageID,
		OriginalPrompt:        result.OriginalPrompt,
		CleanedPrompt:         result.CompiledPrompt,
		Status:                statusCompleted,
		UpscaleIndex:          result.UpscaleIndex,
		UpscaleMethod:         string(result.UpscaleMethod),
		Image:                 base64.StdEncoding.EncodeToString(result.Image),
		MidjourneyOriginalURI: result.OriginalURI,
		MidjourneyUpscaledURI: result.UpscaledURI,
	}
}

// ReferenceResponse is the /generate-with-images success body.
type ReferenceResponse struct {
	Success         bool     `json:"success"`
	MessageID       string   `json:"messageId"`
	OriginalPrompt  string   `json:"originalPrompt"`
	CleanedPrompt   string   `json:"cleanedPrompt"`
	ReferenceImages []string `json:"referenceImages"`
	ImagesUploaded  int      `json:"imagesUploaded"`
	Status          string   `json:"status"`
	LocalImagePath  string   `json:"localImagePath"`
	LocalImageURL   string   `json:"localImageUrl"`
	MidjourneyURI   string   `json:"midjourneyUri"`
}

func NewReferenceResponse(result *generation.ReferenceResult) ReferenceResponse {
	return ReferenceResponse{
		Success:         true,
		MessageID:       result.MessageID,
		OriginalPrompt:  result.OriginalPrompt,
		CleanedPrompt:   result.CleanedPrompt,
		ReferenceImages: result.ReferenceImages,
		ImagesUploaded:  result.ImagesUploaded,
		Status:          statusCompleted,
		LocalImagePath:  result.LocalImagePath,
		LocalImageURL:   result.LocalImageURL,
		MidjourneyURI:   result.MidjourneyURI,
	}
}

// FallbackResponse is the fallback /generate success body.
type FallbackResponse struct {
	Success        bool   `json:"success"`
	MessageID      string `json:"messageId"`
	Prompt         string `json:"prompt"`
	OriginalPrompt string `json:"originalPrompt"`
	Status         string `json:"status"`
	Source         string `json:"source"`
	LocalImagePath string `json:"localImagePath"`
	LocalImageURL  string `json:"localImageUrl"`
	Note           string `json:"note"`
}

func NewFallbackResponse(result *fallback.Result) FallbackResponse {
	return FallbackResponse{
		Success:        true,
		MessageID:      result.MessageID,
		Prompt:         result.Prompt,
		OriginalPrompt: result.OriginalPrompt,
		Status:         statusCompleted,
		Source:         result.Source,
		LocalImagePath: result.LocalImagePath,
		LocalImageURL:  result.LocalImageURL,
		Note:           result.Note,
	}
}

// ImageItem is one entry of the image listing.
type ImageItem struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// ImageListResponse is the /images-list body.
type ImageListResponse struct {
	Total  int         `json:"total"`
	Images []ImageItem `json:"images"`
}

// NewImageListResponse maps stored entries to public URLs with urlFor.
func NewImageListResponse(entries []media.Entry, urlFor func(path string) string) ImageListResponse {
	items := make([]ImageItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ImageItem{Filename: entry.Name, URL: urlFor("/images/" + entry.Name)})
	}
	return ImageListResponse{Total: len(items), Images: items}
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Midjourney string `json:"midjourney,omitempty"`
	Service    string `json:"service,omitempty"`
	Version    string `json:"version,omitempty"`
	Providers  int    `json:"providers,omitempty"`
}

// DescriptorResponse is the GET / body.
type DescriptorResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
}

// Timestamp formats t the way every response carries it.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
