package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		expected string
	}{
		{name: "no parts", parts: nil, expected: "quizforge"},
		{name: "single part", parts: []string{"catalog"}, expected: "quizforge:catalog"},
		{name: "several parts", parts: []string{"catalog", "ollama", "abc"}, expected: "quizforge:catalog:ollama:abc"},
		{name: "blank parts skipped", parts: []string{"catalog", " ", "", "ollama"}, expected: "quizforge:catalog:ollama"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Key(tt.parts...))
		})
	}
}

func TestCatalogKey(t *testing.T) {
	a := CatalogKey("ollama", "http://localhost:11434")
	assert.True(t, strings.HasPrefix(a, "quizforge:catalog:ollama:"))
	assert.Equal(t, a, CatalogKey("ollama", "http://localhost:11434/"))
	assert.NotEqual(t, a, CatalogKey("ollama", "http://gpu-box:11434"))
}
