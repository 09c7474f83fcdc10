package generation

import "context"

// Bot drives Midjourney through a Discord session.
type Bot interface {
	Imagine(ctx context.Context, prompt string) (*Job, error)
	Custom(ctx context.Context, action CustomAction) (*Job, error)
}

// BotProvider hands out the process-wide Bot, connecting it on first use.
type BotProvider interface {
	Bot(ctx context.Context) (Bot, error)
	Ready() bool
}

// ImageWriter persists generated images under a file name.
type ImageWriter interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
}

// ReferencePublisher turns a local upload into a URL Midjourney can fetch.
// It never fails: when publishing is impossible it returns a locally served URL.
type ReferencePublisher interface {
	Publish(ctx context.Context, path string) string
}
