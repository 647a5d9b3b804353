// Package fallback wraps a remote embedding provider so that failures are
// answered by the local deterministic provider instead of surfacing errors.
package fallback

import (
	"context"
	"strings"

	"github.com/custodia-labs/recall/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure EmbeddingService implements the interfaces.
var (
	_ driven.EmbeddingProvider = (*EmbeddingService)(nil)
	_ driven.DirectEmbedder    = (*EmbeddingService)(nil)
)

// EmbeddingService delegates to a primary provider and falls back to a
// local provider of the same dimension on error.
type EmbeddingService struct {
	primary  driven.EmbeddingProvider
	fallback *local.EmbeddingService
	metrics  driven.MetricsRecorder
}

// New wraps primary. metrics may be nil.
func New(primary driven.EmbeddingProvider, metrics driven.MetricsRecorder) *EmbeddingService {
	return &EmbeddingService{
		primary:  primary,
		fallback: local.NewEmbeddingService(primary.Dimensions()),
		metrics:  metrics,
	}
}

// Embed never returns an error unless the context is done.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, s.Dimensions()), nil
	}

	vec, err := s.primary.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	logger.Warn("embedding provider %s failed, using %s: %v", s.primary.Name(), s.fallback.Name(), err)
	if s.metrics != nil {
		s.metrics.EmbeddingFallback(s.primary.Name())
	}
	return s.fallback.Embed(ctx, text)
}

// EmbedDirect calls the primary provider without falling back. The indexer
// uses it so that failed chunks are stored without a vector rather than with
// one from a different embedding space.
func (s *EmbeddingService) EmbedDirect(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, s.Dimensions()), nil
	}
	return s.primary.Embed(ctx, text)
}

// Name reports the primary provider.
func (s *EmbeddingService) Name() string {
	return s.primary.Name()
}

// Dimensions returns the primary provider's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.primary.Dimensions()
}

// Ping checks the primary provider when it supports it.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if p, ok := s.primary.(driven.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
