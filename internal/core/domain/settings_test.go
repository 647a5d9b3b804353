package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.True(t, p.IsValid(), p)
		assert.NotEqual(t, unknownDescription, p.Description())
	}
	assert.False(t, AIProvider("anthropic").IsValid())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"local is never external", EmbeddingSettings{Provider: AIProviderLocal}, false},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"}, true},
		{"ollama needs no key", EmbeddingSettings{Provider: AIProviderOllama}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.IsConfigured())
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderLocal, s.Embedding.Provider)
	assert.Equal(t, DefaultChunkSize, s.Chunking.Size)
	assert.Equal(t, DefaultChunkOverlap, s.Chunking.Overlap)
	assert.Less(t, s.Chunking.Overlap, s.Chunking.Size)
	assert.Equal(t, 1000, s.Retrieval.CandidateLimit)
	assert.Equal(t, KeywordModeSubstring, s.Retrieval.KeywordMode)
	assert.True(t, s.Storage.Driver.IsValid())
}

func TestKeywordMode_IsValid(t *testing.T) {
	assert.True(t, KeywordModeSubstring.IsValid())
	assert.True(t, KeywordModeBM25.IsValid())
	assert.False(t, KeywordMode("tfidf").IsValid())
}
