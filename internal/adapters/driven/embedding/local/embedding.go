// Package local provides a deterministic, offline embedding provider.
//
// Vectors are built from character codes and hashed words, then
// L2-normalised. They carry no semantics beyond lexical overlap but are
// reproducible, which makes them suitable for tests, offline mode and as a
// fallback when a remote provider fails.
package local

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingProvider = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = domain.DefaultLocalDimensions

// charWeight scales the per-character contribution relative to whole words.
const charWeight = 0.25

// EmbeddingService generates deterministic pseudo-embeddings.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a local provider. Non-positive dimensions use
// DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed returns the vector for text. It never fails.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	return s.vector(text), nil
}

// Name identifies the provider.
func (s *EmbeddingService) Name() string {
	return fmt.Sprintf("local:%d", s.dimensions)
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

func (s *EmbeddingService) vector(text string) []float32 {
	acc := make([]float64, s.dimensions)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, word := range words {
		acc[bucket(word, s.dimensions)] += 1
		for i, r := range word {
			acc[(int(r)*31+i)%s.dimensions] += charWeight
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}

	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}

func bucket(word string, dims int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return int(h.Sum32() % uint32(dims))
}
