package logger

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, "short", Prompt("short"))

	long := strings.Repeat("a", 150)
	got := Prompt(long)
	assert.Equal(t, strings.Repeat("a", 100)+"...", got)
}
