// Package ai provides factory functions for creating embedding providers.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/recall/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/recall/internal/adapters/driven/embedding/fallback"
	"github.com/custodia-labs/recall/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/recall/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/recall/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Options carries optional collaborators for the created provider.
type Options struct {
	// Cache fronts remote providers when set.
	Cache driven.EmbeddingCache

	// Metrics records fallbacks when set.
	Metrics driven.MetricsRecorder
}

// CreateEmbeddingProvider creates the embedding provider selected by settings.
//
// The local deterministic provider is used when no provider is set, when
// the local provider is requested, or when OpenAI is selected without an
// API key. Remote providers are wrapped so that their failures fall back to
// a local provider of the same dimension, and are cached when a cache is given.
func CreateEmbeddingProvider(settings *domain.EmbeddingSettings, opts Options) (driven.EmbeddingProvider, error) {
	if settings == nil || settings.Provider == "" || settings.Provider == domain.AIProviderLocal {
		dims := 0
		if settings != nil {
			dims = settings.Dimensions
		}
		return local.NewEmbeddingService(dims), nil
	}

	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}

	if !settings.IsConfigured() {
		logger.Warn("embedding provider %s has no credentials, using local embeddings", settings.Provider)
		return local.NewEmbeddingService(settings.Dimensions), nil
	}

	remote, err := createRemote(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	if opts.Cache != nil {
		remote = cached.New(remote, opts.Cache)
	}
	return fallback.New(remote, opts.Metrics), nil
}

func createRemote(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// ValidateEmbeddingConfig creates the configured provider and pings it.
// Local providers always validate.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	provider, err := CreateEmbeddingProvider(settings, Options{})
	if err != nil {
		return err
	}

	pinger, ok := provider.(driven.Pinger)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := pinger.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w). Run 'recall config set embedding.provider local' to work offline",
			domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}
