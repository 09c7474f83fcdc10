package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFlags(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a cat --ar 16:9 --v 6.1", "a cat"},
		{"a cat --fast --ar 3:2 on a roof --tile", "a cat on a roof"},
		{"--s 750 portrait", "portrait"},
		{"no flags here", "no flags here"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, StripFlags(tt.input), tt.input)
	}
}
