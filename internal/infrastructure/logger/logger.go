package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"jan-server/services/midjourney-api/internal/config"
)

const maxPromptLogLength = 100

// New creates a zerolog.Logger configured for the service.
func New(cfg *config.Config) zerolog.Logger {
	level := parseLevel(cfg.LogLevel)
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	if cfg.Environment == "production" {
		return zerolog.New(os.Stdout).
			With().
			Timestamp().
			Str("service", cfg.ServiceName).
			Str("environment", cfg.Environment).
			Logger().
			Level(level)
	}
	return log.Output(output).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger().
		Level(level)
}

// Prompt shortens a prompt for log lines.
func Prompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= maxPromptLogLength {
		return prompt
	}
	return string(runes[:maxPromptLogLength]) + "..."
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
