package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyEmbedRPS       = "embedding.requests_per_second"
	keyChunkSize      = "chunking.size"
	keyChunkOverlap   = "chunking.overlap"
	keyMaxTokens      = "retrieval.max_context_tokens"
	keyMinRelevance   = "retrieval.min_relevance_score"
	keyMaxChunks      = "retrieval.max_chunks"
	keyCandidateLimit = "retrieval.candidate_limit"
	keyKeywordMode    = "retrieval.keyword_mode"
	keyStorageDriver  = "storage.driver"
	keyStorageDSN     = "storage.dsn"
	keyCacheRedisAddr = "cache.redis_addr"
	keyCacheTTL       = "cache.ttl"
	keyServerAddr     = "server.addr"
	defaultOllamaURL  = "http://localhost:11434"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or invalid values
// take their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			MaxContextTokens:  s.getInt(keyMaxTokens, defaults.Retrieval.MaxContextTokens),
			MinRelevanceScore: s.getFloat(keyMinRelevance, defaults.Retrieval.MinRelevanceScore),
			MaxChunks:         s.getInt(keyMaxChunks, defaults.Retrieval.MaxChunks),
			CandidateLimit:    s.getInt(keyCandidateLimit, defaults.Retrieval.CandidateLimit),
			KeywordMode:       s.getKeywordMode(defaults.Retrieval.KeywordMode),
		},
		Storage: domain.StorageSettings{
			Driver: s.getStorageDriver(defaults.Storage.Driver),
			DSN:    s.configStore.GetString(keyStorageDSN),
		},
		Cache: domain.CacheSettings{
			RedisAddr: s.configStore.GetString(keyCacheRedisAddr),
			TTL:       s.getDuration(keyCacheTTL, defaults.Cache.TTL),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyMaxTokens, settings.Retrieval.MaxContextTokens},
		{keyMinRelevance, settings.Retrieval.MinRelevanceScore},
		{keyMaxChunks, settings.Retrieval.MaxChunks},
		{keyCandidateLimit, settings.Retrieval.CandidateLimit},
		{keyKeywordMode, string(settings.Retrieval.KeywordMode)},
		{keyStorageDriver, string(settings.Storage.Driver)},
		{keyStorageDSN, settings.Storage.DSN},
		{keyCacheRedisAddr, settings.Cache.RedisAddr},
		{keyCacheTTL, settings.Cache.TTL.String()},
		{keyServerAddr, settings.Server.Addr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are written only when set.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	case domain.AIProviderOpenAI:
		if settings.Embedding.BaseURL == defaultOllamaURL {
			settings.Embedding.BaseURL = ""
		}
	case domain.AIProviderLocal:
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Track the model's native size; local keeps whatever was configured.
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// Validate checks that current settings are consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Embedding.Provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		return fmt.Errorf("embedding provider %q requires an API key", settings.Embedding.Provider)
	}
	if settings.Embedding.Dimensions < 0 {
		return fmt.Errorf("%w: embedding dimensions must not be negative", domain.ErrInvalidInput)
	}
	if settings.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidInput)
	}
	if settings.Chunking.Overlap < 0 || settings.Chunking.Overlap >= settings.Chunking.Size {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d)", domain.ErrInvalidInput, settings.Chunking.Size)
	}
	if settings.Retrieval.MaxContextTokens <= 0 {
		return fmt.Errorf("%w: max context tokens must be positive", domain.ErrInvalidInput)
	}
	if settings.Retrieval.MinRelevanceScore < 0 || settings.Retrieval.MinRelevanceScore > 1 {
		return fmt.Errorf("%w: min relevance score must be in [0, 1]", domain.ErrInvalidInput)
	}
	if settings.Storage.Driver == domain.StoragePostgres && settings.Storage.DSN == "" {
		return fmt.Errorf("storage driver %q requires storage.dsn", settings.Storage.Driver)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getFloat accepts both TOML floats and integers.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return defaultVal
	}
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getKeywordMode(defaultVal domain.KeywordMode) domain.KeywordMode {
	mode := domain.KeywordMode(s.configStore.GetString(keyKeywordMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getStorageDriver(defaultVal domain.StorageDriver) domain.StorageDriver {
	driver := domain.StorageDriver(s.configStore.GetString(keyStorageDriver))
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}
