// Package cached provides a read-through cache in front of an embedding provider.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingProvider = (*EmbeddingService)(nil)

// EmbeddingService serves vectors from cache and fills it on misses.
// Cache failures are logged and otherwise ignored.
type EmbeddingService struct {
	inner driven.EmbeddingProvider
	cache driven.EmbeddingCache
}

// New wraps inner with cache.
func New(inner driven.EmbeddingProvider, cache driven.EmbeddingCache) *EmbeddingService {
	return &EmbeddingService{inner: inner, cache: cache}
}

// Key returns the cache key for text under this provider.
func (s *EmbeddingService) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%d:%s", s.inner.Name(), s.inner.Dimensions(), hex.EncodeToString(sum[:]))
}

// Embed returns the cached vector or asks the inner provider.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.Key(text)

	vec, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		logger.Warn("embedding cache read failed: %v", err)
	case ok && len(vec) == s.inner.Dimensions():
		logger.Debug("embedding cache hit %s", key)
		return vec, nil
	}

	vec, err = s.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, vec); err != nil {
		logger.Warn("embedding cache write failed: %v", err)
	}
	return vec, nil
}

// Name reports the inner provider.
func (s *EmbeddingService) Name() string {
	return s.inner.Name()
}

// Dimensions returns the inner provider's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// Ping checks the inner provider when it supports it.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if p, ok := s.inner.(driven.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
