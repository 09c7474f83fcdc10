package generation

import (
	"strings"

	"jan-server/services/midjourney-api/internal/domain/prompt"
)

// UpscaleMethod selects which follow-up action is applied to the image grid.
type UpscaleMethod string

const (
	UpscaleCreative UpscaleMethod = "creative"
	UpscaleSubtle   UpscaleMethod = "subtle"
)

const (
	minUpscaleIndex     = 1
	maxUpscaleIndex     = 4
	defaultUpscaleIndex = 1
)

// ParseUpscaleMethod lower-cases raw and falls back to creative for anything
// that is not a known method.
func ParseUpscaleMethod(raw string) UpscaleMethod {
	switch UpscaleMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case UpscaleSubtle:
		return UpscaleSubtle
	default:
		return UpscaleCreative
	}
}

// ParseUpscaleIndex reads the leading integer of raw. Missing, zero or
// out-of-range values select the first image.
func ParseUpscaleIndex(raw string) int {
	index, ok := prompt.ParseLeadingInt(raw)
	if !ok || index < minUpscaleIndex || index > maxUpscaleIndex {
		return defaultUpscaleIndex
	}
	return index
}

// Option is one button attached to a Midjourney message.
type Option struct {
	Label  string
	Type   int
	Style  int
	Custom string
}

// Job is a Midjourney message that finished rendering.
type Job struct {
	ID       string
	URI      string
	Hash     string
	Content  string
	Progress string
	Flags    int
	Options  []Option
}

// CustomAction presses a button on a finished job.
type CustomAction struct {
	MessageID string
	Flags     int
	CustomID  string
	// Content is the content of the source message, used to match follow-up jobs.
	Content string
}

// GenerateRequest is a text (plus optional URL references) generation.
type GenerateRequest struct {
	Prompt          string
	ReferenceImages []string
	Params          prompt.Params
	UpscaleIndex    int
	UpscaleMethod   UpscaleMethod
}

// GenerateResult is the outcome of Service.Generate.
type GenerateResult struct {
	MessageID        string
	UpscaleMessageID string
	OriginalPrompt   string
	// CompiledPrompt is the exact command sent to Midjourney.
	CompiledPrompt string
	UpscaleIndex   int
	UpscaleMethod  UpscaleMethod
	Image          []byte
	ContentType    string
	OriginalURI    string
	UpscaledURI    string
}

// ReferenceFile is an uploaded reference image stored on local disk.
type ReferenceFile struct {
	Path     string
	Filename string
	Size     int64
}

// ReferenceRequest is a generation guided by uploaded reference images.
type ReferenceRequest struct {
	Prompt string
	Files  []ReferenceFile
}

// ReferenceResult is the outcome of Service.GenerateWithImages.
type ReferenceResult struct {
	MessageID       string
	OriginalPrompt  string
	CleanedPrompt   string
	ReferenceImages []string
	ImagesUploaded  int
	LocalImagePath  string
	LocalImageURL   string
	MidjourneyURI   string
}
