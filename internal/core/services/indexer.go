package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/postprocessors/chunker"
)

// Ensure IndexerService implements the interface.
var _ driving.IndexerService = (*IndexerService)(nil)

// keywordScore is the flat relevance given to substring matches.
const keywordScore = 0.5

// defaultSearchLimit is used when SearchOptions.Limit is not positive.
const defaultSearchLimit = domain.DefaultMaxChunks

// IndexerService chunks documents, embeds chunks and searches them.
type IndexerService struct {
	docStore   driven.DocumentStore
	chunkStore driven.ChunkStore
	embedder   driven.EmbeddingProvider

	searchEngine driven.SearchEngine
	metrics      driven.MetricsRecorder

	locks *keyedMutex

	mu             sync.RWMutex
	chunking       domain.ChunkingSettings
	candidateLimit int
	keywordMode    domain.KeywordMode
}

// NewIndexerService creates a new indexer.
func NewIndexerService(
	docStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	embedder driven.EmbeddingProvider,
) *IndexerService {
	return &IndexerService{
		docStore:   docStore,
		chunkStore: chunkStore,
		embedder:   embedder,
		locks:      newKeyedMutex(),
		chunking: domain.ChunkingSettings{
			Size:    domain.DefaultChunkSize,
			Overlap: domain.DefaultChunkOverlap,
		},
		candidateLimit: domain.DefaultCandidateLimit,
		keywordMode:    domain.KeywordModeSubstring,
	}
}

// SetSearchEngine mirrors chunks into a ranked keyword engine. With mode
// bm25 keyword searches are answered by the engine.
func (s *IndexerService) SetSearchEngine(engine driven.SearchEngine, mode domain.KeywordMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchEngine = engine
	if mode.IsValid() {
		s.keywordMode = mode
	}
}

// SetMetrics sets the metrics recorder.
func (s *IndexerService) SetMetrics(m driven.MetricsRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// SetChunking sets the default chunk size and overlap.
func (s *IndexerService) SetChunking(c domain.ChunkingSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Size > 0 {
		s.chunking = c
	}
}

// SetCandidateLimit sets how many recent embedded chunks a semantic search scores.
func (s *IndexerService) SetCandidateLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.candidateLimit = n
	}
}

// IndexDocument replaces all chunks of documentID with chunks of content.
// Calls for the same document are serialised.
func (s *IndexerService) IndexDocument(
	ctx context.Context, documentID, content string, opts domain.IndexOptions,
) (*domain.IndexResult, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	size, overlap := s.resolveChunking(opts)
	splitter, err := chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap))
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	start := time.Now()
	logger.Section("Index Document")
	logger.Debug("Document: %s, size=%d overlap=%d embeddings=%t", documentID, size, overlap, !opts.SkipEmbeddings)

	chunks := splitter.Split(documentID, content)
	logger.Debug("Split into %d chunks", len(chunks))

	failed := 0
	if !opts.SkipEmbeddings {
		failed, err = s.embedChunks(ctx, chunks)
		if err != nil {
			s.recordIndex(0, failed, start, err)
			return nil, err
		}
	}

	now := time.Now().UTC()
	totalTokens := 0
	for i := range chunks {
		chunks[i].CreatedAt = now
		totalTokens += chunks[i].TokenCount
	}

	engine := s.engine()
	var previous []domain.Chunk
	if engine != nil {
		previous, err = s.chunkStore.ListChunks(ctx, documentID)
		if err != nil {
			logger.Warn("list previous chunks of %s: %v", documentID, err)
		}
	}

	if err := s.chunkStore.ReplaceChunks(ctx, documentID, chunks); err != nil {
		err = fmt.Errorf("replace chunks: %w", err)
		s.recordIndex(0, failed, start, err)
		return nil, err
	}

	if engine != nil {
		s.syncEngine(ctx, engine, previous, chunks)
	}

	if err := s.docStore.UpdateIndexState(ctx, documentID, len(chunks), true); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			err = fmt.Errorf("update document index state: %w", err)
			s.recordIndex(len(chunks), failed, start, err)
			return nil, err
		}
		logger.Warn("document %s is not in the document store, chunks indexed anyway", documentID)
	}

	s.recordIndex(len(chunks), failed, start, nil)
	logger.Info("Indexed %s: %d chunks, %d tokens, %d failed embeddings", documentID, len(chunks), totalTokens, failed)

	return &domain.IndexResult{
		DocumentID:       documentID,
		ChunkCount:       len(chunks),
		Indexed:          true,
		TotalTokens:      totalTokens,
		FailedEmbeddings: failed,
	}, nil
}

// ReindexDocument indexes the stored content of documentID.
func (s *IndexerService) ReindexDocument(
	ctx context.Context, documentID string, opts domain.IndexOptions,
) (*domain.IndexResult, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}
	return s.IndexDocument(ctx, documentID, doc.Content, opts)
}

// DeleteDocumentIndex removes every chunk of documentID and marks it unindexed.
func (s *IndexerService) DeleteDocumentIndex(ctx context.Context, documentID string) error {
	unlock := s.locks.Lock(documentID)
	defer unlock()

	engine := s.engine()
	var previous []domain.Chunk
	if engine != nil {
		previous, _ = s.chunkStore.ListChunks(ctx, documentID)
	}

	if err := s.chunkStore.DeleteChunks(ctx, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if engine != nil {
		s.syncEngine(ctx, engine, previous, nil)
	}

	if err := s.docStore.UpdateIndexState(ctx, documentID, 0, false); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("update document index state: %w", err)
	}
	return nil
}

// SemanticSearch ranks recent embedded chunks by cosine similarity to the
// query. When the query cannot be embedded it answers with KeywordSearch.
// Store failures yield an empty result.
func (s *IndexerService) SemanticSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	start := time.Now()
	logger.Section("Semantic Search")
	logger.Debug("Query: %q, minScore=%.2f, documents=%v", query, opts.MinScore, opts.DocumentIDs)

	if strings.TrimSpace(query) == "" {
		return []domain.RetrievedChunk{}, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	queryVec, err := s.embed(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("query embedding failed, using keyword search: %v", err)
		// Keyword scores are not similarities, so the threshold does not apply.
		return s.KeywordSearch(ctx, query, domain.SearchOptions{Limit: limit, DocumentIDs: opts.DocumentIDs})
	}

	candidates, err := s.chunkStore.ListEmbedded(ctx, opts.DocumentIDs, s.limit())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("load search candidates: %v", err)
		return []domain.RetrievedChunk{}, nil
	}
	logger.Debug("Scoring %d candidates", len(candidates))

	results := make([]domain.RetrievedChunk, 0, len(candidates))
	for _, c := range candidates {
		score := cosineSimilarity(queryVec, c.Embedding)
		if score < opts.MinScore {
			continue
		}
		c.Embedding = nil
		results = append(results, domain.RetrievedChunk{
			Chunk:         c,
			Score:         score,
			WeightedScore: score,
			SourceType:    domain.SourceDocument,
			SourceID:      c.DocumentID,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	s.recordRetrieval("semantic_search", len(results), start)
	logger.Debug("Returning %d results", len(results))
	return results, nil
}

// KeywordSearch matches chunks containing the query. In substring mode every
// match scores 0.5. In bm25 mode scores come from the search engine,
// normalised so the best hit scores 1.
func (s *IndexerService) KeywordSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	start := time.Now()
	logger.Section("Keyword Search")

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.RetrievedChunk{}, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	s.mu.RLock()
	engine, mode := s.searchEngine, s.keywordMode
	s.mu.RUnlock()

	var results []domain.RetrievedChunk
	var err error
	if mode == domain.KeywordModeBM25 && engine != nil {
		logger.Debug("Using ranked keyword search")
		results, err = s.rankedKeywordSearch(ctx, engine, query, opts, limit)
	} else {
		results, err = s.substringSearch(ctx, query, opts, limit)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("keyword search: %v", err)
		return []domain.RetrievedChunk{}, nil
	}

	s.recordRetrieval("keyword_search", len(results), start)
	return results, nil
}

// GetDocumentChunks returns a document's chunks ordered by chunk index, without embeddings.
func (s *IndexerService) GetDocumentChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	chunks, err := s.chunkStore.ListChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
	for i := range chunks {
		chunks[i].Embedding = nil
	}
	return chunks, nil
}

// embed asks the provider for a vector. Providers that substitute vectors
// on failure are asked for the real one, so errors reach the caller.
func (s *IndexerService) embed(ctx context.Context, text string) ([]float32, error) {
	if d, ok := s.embedder.(driven.DirectEmbedder); ok {
		return d.EmbedDirect(ctx, text)
	}
	return s.embedder.Embed(ctx, text)
}

// embedChunks fills embeddings one chunk at a time. A failure for one chunk
// leaves its embedding nil. Only a cancelled context aborts the run.
func (s *IndexerService) embedChunks(ctx context.Context, chunks []domain.Chunk) (int, error) {
	dims := s.embedder.Dimensions()
	failed := 0

	for i := range chunks {
		if err := ctx.Err(); err != nil {
			return failed, fmt.Errorf("embed chunks: %w", err)
		}

		vec, err := s.embed(ctx, chunks[i].Content)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return failed, fmt.Errorf("embed chunks: %w", ctxErr)
			}
			logger.Warn("embedding chunk %d of %s failed: %v", chunks[i].ChunkIndex, chunks[i].DocumentID, err)
			failed++
		case len(vec) != dims:
			logger.Warn("embedding chunk %d of %s: %v: got %d, want %d",
				chunks[i].ChunkIndex, chunks[i].DocumentID, domain.ErrInvalidDimensions, len(vec), dims)
			failed++
		default:
			chunks[i].Embedding = vec
		}
	}

	return failed, nil
}

func (s *IndexerService) substringSearch(
	ctx context.Context, query string, opts domain.SearchOptions, limit int,
) ([]domain.RetrievedChunk, error) {
	chunks, err := s.chunkStore.SearchContent(ctx, query, opts.DocumentIDs, limit)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievedChunk, 0, len(chunks))
	for _, c := range chunks {
		c.Embedding = nil
		results = append(results, domain.RetrievedChunk{
			Chunk:         c,
			Score:         keywordScore,
			WeightedScore: keywordScore,
			SourceType:    domain.SourceDocument,
			SourceID:      c.DocumentID,
		})
	}
	return results, nil
}

func (s *IndexerService) rankedKeywordSearch(
	ctx context.Context, engine driven.SearchEngine, query string, opts domain.SearchOptions, limit int,
) ([]domain.RetrievedChunk, error) {
	fetch := limit
	if len(opts.DocumentIDs) > 0 {
		fetch = limit * 4
	}

	hits, err := engine.Search(ctx, query, fetch)
	if err != nil {
		return nil, fmt.Errorf("search engine: %w", err)
	}
	if len(hits) == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	chunks, err := s.chunkStore.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate chunks: %w", err)
	}
	byID := make(map[string]domain.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	allowed := toSet(opts.DocumentIDs)
	top := hits[0].Score
	results := make([]domain.RetrievedChunk, 0, limit)
	for _, h := range hits {
		c, ok := byID[h.ChunkID]
		if !ok {
			continue
		}
		if len(allowed) > 0 && !allowed[c.DocumentID] {
			continue
		}
		score := 1.0
		if top > 0 {
			score = h.Score / top
		}
		if score < opts.MinScore {
			continue
		}
		results = append(results, domain.RetrievedChunk{
			Chunk:         c,
			Score:         score,
			WeightedScore: score,
			SourceType:    domain.SourceDocument,
			SourceID:      c.DocumentID,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// BackfillSearchEngine loads every stored chunk into an empty keyword engine.
// Chunks indexed while the engine was disabled are otherwise invisible to
// bm25 searches. An engine that already holds chunks is left alone.
func (s *IndexerService) BackfillSearchEngine(ctx context.Context) (int, error) {
	engine := s.engine()
	if engine == nil {
		return 0, nil
	}
	n, err := engine.Count()
	if err != nil {
		return 0, fmt.Errorf("count search engine: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	docs, err := s.docStore.ListDocuments(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	indexed := 0
	for _, doc := range docs {
		chunks, err := s.chunkStore.ListChunks(ctx, doc.ID)
		if err != nil {
			return indexed, fmt.Errorf("list chunks for %s: %w", doc.ID, err)
		}
		for _, c := range chunks {
			if err := ctx.Err(); err != nil {
				return indexed, err
			}
			if err := engine.Index(ctx, c); err != nil {
				return indexed, fmt.Errorf("index chunk %s: %w", c.ID, err)
			}
			indexed++
		}
	}
	if indexed > 0 {
		logger.Info("Backfilled %d chunks into the search engine", indexed)
	}
	return indexed, nil
}

// syncEngine removes previous chunks from the keyword engine and indexes current ones.
func (s *IndexerService) syncEngine(ctx context.Context, engine driven.SearchEngine, previous, current []domain.Chunk) {
	for _, c := range previous {
		if err := engine.Delete(ctx, c.ID); err != nil {
			logger.Warn("remove chunk %s from search engine: %v", c.ID, err)
		}
	}
	for _, c := range current {
		if err := engine.Index(ctx, c); err != nil {
			logger.Warn("index chunk %s in search engine: %v", c.ID, err)
		}
	}
}

func (s *IndexerService) resolveChunking(opts domain.IndexOptions) (size, overlap int) {
	if opts.ChunkSize == 0 && opts.ChunkOverlap == 0 {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.chunking.Size, s.chunking.Overlap
	}
	if opts.ChunkSize == 0 {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.chunking.Size, opts.ChunkOverlap
	}
	return opts.ChunkSize, opts.ChunkOverlap
}

func (s *IndexerService) engine() driven.SearchEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchEngine
}

func (s *IndexerService) limit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.candidateLimit
}

func (s *IndexerService) recordIndex(chunks, failed int, start time.Time, err error) {
	s.mu.RLock()
	m := s.metrics
	s.mu.RUnlock()
	if m != nil {
		m.IndexCompleted(chunks, failed, time.Since(start), err)
	}
}

func (s *IndexerService) recordRetrieval(op string, results int, start time.Time) {
	s.mu.RLock()
	m := s.metrics
	s.mu.RUnlock()
	if m != nil {
		m.RetrievalCompleted(op, results, time.Since(start))
	}
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
