package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults, *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("embedding.requests_per_second", int64(3))
	_ = store.Set("chunking.size", 500)
	_ = store.Set("retrieval.min_relevance_score", 0.45)
	_ = store.Set("retrieval.keyword_mode", "bm25")
	_ = store.Set("storage.driver", "postgres")
	_ = store.Set("cache.ttl", "1h")

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.InDelta(t, 3.0, settings.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, 500, settings.Chunking.Size)
	assert.InDelta(t, 0.45, settings.Retrieval.MinRelevanceScore, 1e-9)
	assert.Equal(t, domain.KeywordModeBM25, settings.Retrieval.KeywordMode)
	assert.Equal(t, domain.StoragePostgres, settings.Storage.Driver)
	assert.Equal(t, time.Hour, settings.Cache.TTL)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("retrieval.keyword_mode", "fuzzy")
	_ = store.Set("storage.driver", "mongo")
	_ = store.Set("cache.ttl", "soon")

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Retrieval.KeywordMode, settings.Retrieval.KeywordMode)
	assert.Equal(t, defaults.Storage.Driver, settings.Storage.Driver)
	assert.Equal(t, defaults.Cache.TTL, settings.Cache.TTL)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	settings.Retrieval.MaxChunks = 8
	settings.Cache.RedisAddr = "localhost:6379"
	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 8, got.Retrieval.MaxChunks)
	assert.Equal(t, "localhost:6379", got.Cache.RedisAddr)

	_, exists := store.Get("embedding.api_key")
	assert.False(t, exists)
}

func TestSettingsService_SetEmbeddingProvider_Ollama(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_OpenAI(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-test"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Equal(t, 3072, settings.Embedding.Dimensions)
	assert.True(t, settings.Embedding.IsConfigured())
}

func TestSettingsService_SetEmbeddingProvider_Errors(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
	assert.Error(t, service.SetEmbeddingProvider("anthropic", "", "key"))
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)
	require.NoError(t, service.Validate())

	_ = store.Set("chunking.overlap", 1000)
	assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)

	_ = store.Set("chunking.overlap", 100)
	_ = store.Set("storage.driver", "postgres")
	assert.Error(t, service.Validate())

	_ = store.Set("storage.dsn", "postgres://localhost/recall")
	_ = store.Set("embedding.provider", "openai")
	assert.Error(t, service.Validate())
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
