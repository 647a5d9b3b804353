// Command recall indexes documents and retrieves context for LLM prompts.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/recall/internal/adapters/driven/ai"
	rediscache "github.com/custodia-labs/recall/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/recall/internal/adapters/driven/config/file"
	"github.com/custodia-labs/recall/internal/adapters/driven/metrics"
	"github.com/custodia-labs/recall/internal/adapters/driven/search/bleve"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recall/internal/adapters/driving/cli"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/services"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/normalisers"
)

// version is set at build time via -ldflags.
var version = "dev"

// stores groups the persistence ports of one backend.
type stores struct {
	docs      driven.DocumentStore
	chunks    driven.ChunkStore
	citations driven.CitationStore
	pools     driven.PoolStore
	entities  driven.EntityStore
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// A missing .env is fine.
	_ = godotenv.Load()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	configStore.ApplyEnv(os.LookupEnv)

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		logger.Warn("invalid settings: %v", err)
	}

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close: %v", err)
			}
		}
	}()

	st, dataDir, closer, err := openStores(ctx, settings.Storage)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	recorder := metrics.NewRecorder()

	var cache driven.EmbeddingCache = memory.NewEmbeddingCache()
	if settings.Cache.RedisAddr != "" {
		rc, err := rediscache.New(ctx, settings.Cache.RedisAddr, settings.Cache.TTL)
		if err != nil {
			logger.Warn("redis cache unavailable, using in-process cache: %v", err)
		} else {
			cache = rc
			closers = append(closers, rc)
		}
	}

	embedder, err := ai.CreateEmbeddingProvider(&settings.Embedding, ai.Options{Cache: cache, Metrics: recorder})
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	logger.Debug("Embedding provider: %s (%d dims)", embedder.Name(), embedder.Dimensions())

	indexer := services.NewIndexerService(st.docs, st.chunks, embedder)
	indexer.SetMetrics(recorder)
	indexer.SetChunking(settings.Chunking)
	indexer.SetCandidateLimit(settings.Retrieval.CandidateLimit)

	if settings.Retrieval.KeywordMode == domain.KeywordModeBM25 {
		engine, err := openSearchEngine(dataDir)
		if err != nil {
			logger.Warn("full-text index unavailable, using substring search: %v", err)
		} else {
			indexer.SetSearchEngine(engine, settings.Retrieval.KeywordMode)
			closers = append(closers, engine)
			if _, err := indexer.BackfillSearchEngine(ctx); err != nil {
				logger.Warn("backfilling full-text index: %v", err)
			}
		}
	}

	retriever := services.NewRetrieverService(indexer, st.docs, st.citations)
	retriever.SetPoolStore(st.pools)
	retriever.SetEntityStore(st.entities)
	retriever.SetMetrics(recorder)
	if err := retriever.SetMaxContextTokens(settings.Retrieval.MaxContextTokens); err != nil {
		logger.Warn("retrieval.max_context_tokens: %v", err)
	}
	if err := retriever.SetMinRelevanceScore(settings.Retrieval.MinRelevanceScore); err != nil {
		logger.Warn("retrieval.min_relevance_score: %v", err)
	}
	if err := retriever.SetMaxChunks(settings.Retrieval.MaxChunks); err != nil {
		logger.Warn("retrieval.max_chunks: %v", err)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		logger.Warn("prompt files unavailable, using built-in prompts: %v", err)
	} else {
		retriever.SetPromptStore(prompts)
	}

	cli.Configure(cli.Services{
		Document:  services.NewDocumentService(st.docs, indexer),
		Indexer:   indexer,
		Retriever: retriever,
		Settings:  settingsService,
		Config:    configStore,
		Normalise: normalisers.DefaultRegistry(),
		Metrics:   recorder.Handler(),
	})
	cli.SetVersion(version)

	return cli.Execute()
}

// openStores opens the configured backend. dataDir is where file-based
// indexes live; it is empty for the memory driver.
func openStores(ctx context.Context, cfg domain.StorageSettings) (stores, string, io.Closer, error) {
	switch cfg.Driver {
	case domain.StorageMemory:
		docs := memory.NewDocumentStore()
		pools := memory.NewPoolStore()
		return stores{
			docs:      docs,
			chunks:    docs,
			citations: memory.NewCitationStore(docs),
			pools:     pools,
			entities:  pools,
		}, "", nil, nil

	case domain.StoragePostgres:
		if cfg.DSN == "" {
			return stores{}, "", nil, fmt.Errorf("%w: storage.dsn is required for postgres", domain.ErrInvalidInput)
		}
		pg, err := postgres.NewStore(ctx, cfg.DSN)
		if err != nil {
			return stores{}, "", nil, fmt.Errorf("opening postgres: %w", err)
		}
		if err := pg.Migrate(); err != nil {
			pg.Close()
			return stores{}, "", nil, fmt.Errorf("migrating postgres: %w", err)
		}
		dataDir, err := defaultDataDir()
		if err != nil {
			pg.Close()
			return stores{}, "", nil, err
		}
		return stores{
			docs:      pg.DocumentStore(),
			chunks:    pg.ChunkStore(),
			citations: pg.CitationStore(),
			pools:     pg.PoolStore(),
			entities:  pg.EntityStore(),
		}, dataDir, pg, nil

	default:
		dataDir := cfg.DSN
		if dataDir == "" {
			var err error
			if dataDir, err = defaultDataDir(); err != nil {
				return stores{}, "", nil, err
			}
		}
		lite, err := sqlite.NewStore(dataDir)
		if err != nil {
			return stores{}, "", nil, fmt.Errorf("opening sqlite: %w", err)
		}
		logger.Debug("Database: %s", lite.Path())
		return stores{
			docs:      lite.DocumentStore(),
			chunks:    lite.ChunkStore(),
			citations: lite.CitationStore(),
			pools:     lite.PoolStore(),
			entities:  lite.EntityStore(),
		}, dataDir, lite, nil
	}
}

func openSearchEngine(dataDir string) (*bleve.Engine, error) {
	if dataDir == "" {
		return bleve.NewMemEngine()
	}
	return bleve.NewEngine(filepath.Join(dataDir, "search.bleve"))
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".recall", "data"), nil
}
