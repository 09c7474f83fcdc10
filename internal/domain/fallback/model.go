package fallback

import (
	"fmt"
	"strings"
)

// Provider is a public text-to-image endpoint addressed by a URL template.
// Templates may reference {prompt}, {width}, {height}, {seed} and {aspect}.
type Provider struct {
	Name     string
	Template string
}

// ParseProviders reads "name|template" entries. Entries without a name are
// called provider-N after their position.
func ParseProviders(entries []string) []Provider {
	providers := make([]Provider, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, template, found := strings.Cut(entry, "|")
		if !found {
			template = name
			name = fmt.Sprintf("provider-%d", len(providers)+1)
		}
		template = strings.TrimSpace(template)
		if template == "" {
			continue
		}
		providers = append(providers, Provider{Name: strings.TrimSpace(name), Template: template})
	}
	return providers
}

// Request is the fallback generate body.
type Request struct {
	Prompt      string `json:"prompt"`
	Speed       string `json:"speed,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	Stylization string `json:"stylization,omitempty"`
}

// Result is the outcome of a fallback generation.
type Result struct {
	MessageID      string
	Prompt         string
	OriginalPrompt string
	Source         string
	LocalImagePath string
	LocalImageURL  string
	Note           string
}

// Attempt records one provider call for the debug snapshot.
type Attempt struct {
	Provider   string `json:"provider"`
	URL        string `json:"url"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// Snapshot is the debug record written for a fallback request.
type Snapshot struct {
	MessageID  string    `json:"messageId"`
	Request    Request   `json:"request"`
	Prompt     string    `json:"prompt"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Attempts   []Attempt `json:"attempts"`
	Source     string    `json:"source,omitempty"`
	ImagePath  string    `json:"imagePath,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  string    `json:"startedAt"`
	FinishedAt string    `json:"finishedAt"`
}
