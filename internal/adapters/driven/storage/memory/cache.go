package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache is an unbounded in-memory driven.EmbeddingCache.
type EmbeddingCache struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewEmbeddingCache creates an empty cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{vectors: make(map[string][]float32)}
}

// Get returns the cached vector for key.
func (c *EmbeddingCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.vectors[key]
	if !ok {
		return nil, false, nil
	}
	return append([]float32(nil), vec...), true, nil
}

// Set stores a copy of vec under key.
func (c *EmbeddingCache) Set(_ context.Context, key string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors[key] = append([]float32(nil), vec...)
	return nil
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}
