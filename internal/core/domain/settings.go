package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderLocal is the deterministic offline provider.
	AIProviderLocal AIProvider = "local"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs without a network service.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Local (deterministic, offline)"
	case AIProviderOllama:
		return "Ollama (local server)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's vector size when positive.
	Dimensions int

	// RequestsPerSecond limits outbound embedding calls. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if an external provider is set up with the
// credentials it needs.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider.IsLocal() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds default chunking parameters.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// KeywordMode selects how keyword search ranks matches.
type KeywordMode string

// Available keyword modes.
const (
	// KeywordModeSubstring matches case-insensitive substrings with a flat score.
	KeywordModeSubstring KeywordMode = "substring"

	// KeywordModeBM25 ranks matches with the full-text search engine.
	KeywordModeBM25 KeywordMode = "bm25"
)

// IsValid returns true if the keyword mode is recognised.
func (m KeywordMode) IsValid() bool {
	return m == KeywordModeSubstring || m == KeywordModeBM25
}

// RetrievalSettings holds retriever tuning.
type RetrievalSettings struct {
	// MaxContextTokens is the token budget for injected context.
	MaxContextTokens int

	// MinRelevanceScore is the default similarity threshold.
	MinRelevanceScore float64

	// MaxChunks is the default number of chunks retrieved.
	MaxChunks int

	// CandidateLimit caps how many recent embedded chunks are scored per query.
	CandidateLimit int

	// KeywordMode selects the keyword ranking.
	KeywordMode KeywordMode
}

// StorageDriver selects the persistence backend.
type StorageDriver string

// Available storage drivers.
const (
	StorageSQLite   StorageDriver = "sqlite"
	StoragePostgres StorageDriver = "postgres"
	StorageMemory   StorageDriver = "memory"
)

// IsValid returns true if the driver is recognised.
func (d StorageDriver) IsValid() bool {
	switch d {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// Driver is the backend.
	Driver StorageDriver

	// DSN is the PostgreSQL connection string, or the SQLite data directory.
	DSN string
}

// CacheSettings holds embedding cache configuration.
type CacheSettings struct {
	// RedisAddr enables the Redis cache when set.
	RedisAddr string

	// TTL is how long cached embeddings live.
	TTL time.Duration
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Storage   StorageSettings
	Cache     CacheSettings
	Server    ServerSettings
}

// Defaults for chunking and retrieval.
const (
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 200
	DefaultMaxContextTokens  = 4000
	DefaultMinRelevanceScore = 0.3
	DefaultMaxChunks         = 5
	DefaultCandidateLimit    = 1000
	DefaultLocalDimensions   = 384
)

// DefaultAppSettings returns settings with sensible defaults.
// The embedding provider defaults to the local deterministic provider.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderLocal,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			MaxContextTokens:  DefaultMaxContextTokens,
			MinRelevanceScore: DefaultMinRelevanceScore,
			MaxChunks:         DefaultMaxChunks,
			CandidateLimit:    DefaultCandidateLimit,
			KeywordMode:       KeywordModeSubstring,
		},
		Storage: StorageSettings{
			Driver: StorageSQLite,
		},
		Cache: CacheSettings{
			TTL: 24 * time.Hour,
		},
		Server: ServerSettings{
			Addr: "127.0.0.1:8420",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
