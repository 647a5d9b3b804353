package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"one char", "a", 1},
		{"exact multiple", "abcdefgh", 2},
		{"rounds up", "abcdefghi", 3},
		{"counts runes not bytes", "héllo", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestChunk_HasEmbedding(t *testing.T) {
	assert.False(t, Chunk{}.HasEmbedding())
	assert.False(t, Chunk{Embedding: []float32{}}.HasEmbedding())
	assert.True(t, Chunk{Embedding: []float32{0.1}}.HasEmbedding())
}
