package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/embedding/fallback"
	"github.com/custodia-labs/recall/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/recall/internal/core/domain"
)

type memCache struct{ data map[string][]float32 }

func (c *memCache) Get(_ context.Context, k string) ([]float32, bool, error) {
	v, ok := c.data[k]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, k string, v []float32) error {
	c.data[k] = v
	return nil
}

func TestCreateEmbeddingProvider(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantLocal bool
		wantDims  int
		wantErr   error
	}{
		{
			name:      "nil settings uses local",
			settings:  nil,
			wantLocal: true,
			wantDims:  local.DefaultDimensions,
		},
		{
			name:      "empty provider uses local",
			settings:  &domain.EmbeddingSettings{},
			wantLocal: true,
			wantDims:  local.DefaultDimensions,
		},
		{
			name:      "local with custom dimensions",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderLocal, Dimensions: 64},
			wantLocal: true,
			wantDims:  64,
		},
		{
			name:      "openai without key uses local",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantLocal: true,
			wantDims:  local.DefaultDimensions,
		},
		{
			name: "openai with key is wrapped",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
			wantDims: 1536,
		},
		{
			name: "ollama is wrapped",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "nomic-embed-text",
			},
			wantDims: 768,
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "anthropic"},
			wantErr:  domain.ErrUnsupportedType,
		},
		{
			name: "openai unknown model without dimensions",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "k",
				Model:    "mystery",
			},
			wantErr: domain.ErrEmbeddingUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CreateEmbeddingProvider(tt.settings, Options{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDims, p.Dimensions())

			if tt.wantLocal {
				assert.IsType(t, &local.EmbeddingService{}, p)
			} else {
				assert.IsType(t, &fallback.EmbeddingService{}, p)
			}
		})
	}
}

func TestCreateEmbeddingProvider_FallsBackWhenRemoteFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := CreateEmbeddingProvider(&domain.EmbeddingSettings{
		Provider:   domain.AIProviderOllama,
		BaseURL:    srv.URL,
		Dimensions: 16,
	}, Options{Cache: &memCache{data: map[string][]float32{}}})
	require.NoError(t, err)

	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 16)

	want, _ := local.NewEmbeddingService(16).Embed(context.Background(), "hello")
	assert.Equal(t, want, vec)
}

func TestValidateEmbeddingConfig(t *testing.T) {
	assert.NoError(t, ValidateEmbeddingConfig(nil))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := ValidateEmbeddingConfig(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
