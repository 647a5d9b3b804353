package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{1, 2}, []float32{0, 0}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	got := extractKeywords("What did the Team decide about the team's roadmap? API, roadmap!")
	assert.Equal(t, []string{"what", "team", "decide", "about", "roadmap"}, got)

	assert.Empty(t, extractKeywords("a an the of"))
	assert.Empty(t, extractKeywords(""))
}

func TestKeywordFraction(t *testing.T) {
	keywords := []string{"budget", "review", "quarterly"}

	assert.InDelta(t, 1.0, keywordFraction(keywords, "Quarterly BUDGET review notes"), 1e-9)
	assert.InDelta(t, 1.0/3, keywordFraction(keywords, "budget only"), 1e-9)
	assert.Zero(t, keywordFraction(keywords, "nothing relevant"))
	assert.Zero(t, keywordFraction(nil, "budget"))
}

func TestPoolScore(t *testing.T) {
	assert.InDelta(t, 0.7, poolScore(0.5, 0.5, 0.4), 1e-9)
	assert.InDelta(t, 1.0, poolScore(0.9, 1, 0.5), 1e-9)
	assert.InDelta(t, 0.2, poolScore(0.2, 0, 0.5), 1e-9)
}

func TestClamp01(t *testing.T) {
	assert.Zero(t, clamp01(-0.2))
	assert.InDelta(t, 0.4, clamp01(0.4), 1e-9)
	assert.InDelta(t, 1.0, clamp01(1.3), 1e-9)
}
