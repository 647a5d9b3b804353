package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.RetrieverService = (*RetrieverService)(nil)

// poolCandidateLimit caps how many entries are scored per content pool.
const poolCandidateLimit = 100

// poolBoosts scale the keyword fraction added to a pool entry's importance.
var poolBoosts = map[domain.SourceType]float64{
	domain.SourceConversation:     0.5,
	domain.SourceExternalDatabase: 0.5,
	domain.SourceAudio:            0.4,
	domain.SourceScreenshot:       0.3,
}

// RetrieverService retrieves context for queries, packs it into prompts and
// records citations.
type RetrieverService struct {
	indexer   driving.IndexerService
	docStore  driven.DocumentStore
	citations driven.CitationStore

	poolStore driven.PoolStore
	entities  driven.EntityStore
	prompts   driven.PromptStore
	metrics   driven.MetricsRecorder

	mu                sync.RWMutex
	maxContextTokens  int
	minRelevanceScore float64
	maxChunks         int
}

// NewRetrieverService creates a new retriever.
func NewRetrieverService(
	indexer driving.IndexerService,
	docStore driven.DocumentStore,
	citations driven.CitationStore,
) *RetrieverService {
	return &RetrieverService{
		indexer:           indexer,
		docStore:          docStore,
		citations:         citations,
		maxContextTokens:  domain.DefaultMaxContextTokens,
		minRelevanceScore: domain.DefaultMinRelevanceScore,
		maxChunks:         domain.DefaultMaxChunks,
	}
}

// SetPoolStore enables the non-document content pools.
func (s *RetrieverService) SetPoolStore(store driven.PoolStore) {
	s.poolStore = store
}

// SetEntityStore enables the related-entities prompt block.
func (s *RetrieverService) SetEntityStore(store driven.EntityStore) {
	s.entities = store
}

// SetPromptStore sets the store for customisable prompt fragments.
func (s *RetrieverService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// SetMetrics sets the metrics recorder.
func (s *RetrieverService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// SetMaxContextTokens sets the token budget for injected context.
func (s *RetrieverService) SetMaxContextTokens(tokens int) error {
	if tokens <= 0 {
		return fmt.Errorf("%w: max context tokens must be positive, got %d", domain.ErrInvalidInput, tokens)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxContextTokens = tokens
	return nil
}

// SetMinRelevanceScore sets the default similarity threshold.
func (s *RetrieverService) SetMinRelevanceScore(score float64) error {
	if score < 0 || score > 1 {
		return fmt.Errorf("%w: min relevance score must be in [0,1], got %v", domain.ErrInvalidInput, score)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minRelevanceScore = score
	return nil
}

// SetMaxChunks sets the default number of chunks retrieved.
func (s *RetrieverService) SetMaxChunks(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: max chunks must be positive, got %d", domain.ErrInvalidInput, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxChunks = n
	return nil
}

// MaxContextTokens returns the current token budget.
func (s *RetrieverService) MaxContextTokens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxContextTokens
}

// MinRelevanceScore returns the current similarity threshold.
func (s *RetrieverService) MinRelevanceScore() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minRelevanceScore
}

// RetrieveContext searches the document index and pairs each chunk with its
// document's title and filename. Documents are looked up in one batch.
func (s *RetrieverService) RetrieveContext(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) (*domain.ContextData, error) {
	start := time.Now()
	logger.Section("Retrieve Context")

	maxChunks, minScore := s.resolve(opts.MaxChunks, opts.MinScore)
	logger.Debug("Query: %q, maxChunks=%d, minScore=%.2f", query, maxChunks, minScore)

	chunks, err := s.indexer.SemanticSearch(ctx, query, domain.SearchOptions{
		Limit:       maxChunks,
		MinScore:    minScore,
		DocumentIDs: opts.DocumentIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	data := s.assemble(ctx, chunks)
	s.recordRetrieval("retrieve_context", len(data.Chunks), start)
	return data, nil
}

// RetrieveContextMultiSource searches the enabled sources independently,
// weights each result by its source type and keeps the best maxChunks.
// A failing source contributes nothing; the call itself only fails when the
// context is cancelled.
func (s *RetrieverService) RetrieveContextMultiSource(
	ctx context.Context, query, ownerID string, opts domain.MultiSourceOptions,
) (*domain.ContextData, error) {
	start := time.Now()
	logger.Section("Retrieve Multi-Source Context")

	sources := enabledSources(opts.Sources)
	maxChunks, minScore := s.resolve(opts.MaxChunks, opts.MinScore)
	logger.Debug("Query: %q, owner=%s, sources=%v, maxChunks=%d", query, ownerID, sources, maxChunks)

	perSource := make([][]domain.RetrievedChunk, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perSource[i] = s.searchSource(ctx, src, query, ownerID, maxChunks, minScore)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged []domain.RetrievedChunk
	for i, results := range perSource {
		logger.Debug("%s: %d results", sources[i], len(results))
		merged = append(merged, results...)
	}
	for i := range merged {
		merged[i].WeightedScore = merged[i].Score * merged[i].SourceType.Weight()
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].WeightedScore > merged[j].WeightedScore
	})
	if len(merged) > maxChunks {
		merged = merged[:maxChunks]
	}

	data := s.assemble(ctx, merged)
	s.recordRetrieval("retrieve_multi_source", len(data.Chunks), start)
	return data, nil
}

// searchSource runs one source's search. Errors and panics degrade to no results.
func (s *RetrieverService) searchSource(
	ctx context.Context, src domain.SourceType, query, ownerID string, limit int, minScore float64,
) (results []domain.RetrievedChunk) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("%s search panicked: %v", src, r)
			s.poolFailed(src)
			results = nil
		}
	}()

	var err error
	if src == domain.SourceDocument {
		results, err = s.indexer.SemanticSearch(ctx, query, domain.SearchOptions{Limit: limit, MinScore: minScore})
	} else {
		results, err = s.searchPool(ctx, src, query, ownerID, limit, minScore)
	}
	if err != nil {
		logger.Warn("%s search failed: %v", src, err)
		s.poolFailed(src)
		return nil
	}
	return results
}

// searchPool scores an owner's most important recent entries of one type by
// importance plus boosted keyword overlap.
func (s *RetrieverService) searchPool(
	ctx context.Context, src domain.SourceType, query, ownerID string, limit int, minScore float64,
) ([]domain.RetrievedChunk, error) {
	if s.poolStore == nil {
		return nil, nil
	}

	entries, err := s.poolStore.ListCandidates(ctx, ownerID, src, poolCandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list %s candidates: %w", src, err)
	}

	keywords := extractKeywords(query)
	boost := poolBoosts[src]

	results := make([]domain.RetrievedChunk, 0, len(entries))
	for _, e := range entries {
		score := poolScore(e.ImportanceScore, keywordFraction(keywords, e.Content), boost)
		if score < minScore {
			continue
		}
		results = append(results, domain.RetrievedChunk{
			Chunk: domain.Chunk{
				ID:         e.ID,
				Content:    e.Content,
				TokenCount: domain.EstimateTokens(e.Content),
				CreatedAt:  e.IndexedAt,
			},
			Score:       score,
			SourceType:  src,
			SourceID:    e.SourceID,
			SourceTitle: e.SourceTitle,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// assemble builds ContextData, looking up document metadata in one batch.
func (s *RetrieverService) assemble(ctx context.Context, chunks []domain.RetrievedChunk) *domain.ContextData {
	if len(chunks) == 0 {
		return domain.EmptyContext()
	}

	docs := s.lookupDocuments(ctx, chunks)

	data := &domain.ContextData{
		HasContext: true,
		Chunks:     chunks,
		Sources:    make([]domain.Source, 0, len(chunks)),
	}
	for _, c := range chunks {
		src := domain.Source{
			ChunkID:    c.Chunk.ID,
			ChunkIndex: c.Chunk.ChunkIndex,
			Content:    c.Chunk.Content,
			Score:      c.Score,
			SourceType: c.SourceType,
			Title:      c.SourceTitle,
		}
		if c.SourceType == domain.SourceDocument {
			src.DocumentID = c.Chunk.DocumentID
			if doc, ok := docs[c.Chunk.DocumentID]; ok {
				src.Title = doc.Title
				src.Filename = doc.Filename
			}
		}
		if src.Title == "" {
			src.Title = untitled(src)
		}

		tokens := c.Chunk.TokenCount
		if tokens == 0 {
			tokens = domain.EstimateTokens(c.Chunk.Content)
		}
		data.TotalTokens += tokens
		data.Sources = append(data.Sources, src)
	}
	return data
}

func (s *RetrieverService) lookupDocuments(ctx context.Context, chunks []domain.RetrievedChunk) map[string]domain.Document {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range chunks {
		id := c.Chunk.DocumentID
		if c.SourceType != domain.SourceDocument || id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	docs, err := s.docStore.GetDocuments(ctx, ids)
	if err != nil {
		logger.Warn("look up %d documents: %v", len(ids), err)
		return nil
	}

	byID := make(map[string]domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	return byID
}

func (s *RetrieverService) resolve(maxChunks int, minScore float64) (int, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if maxChunks <= 0 {
		maxChunks = s.maxChunks
	}
	switch {
	case minScore < 0:
		minScore = 0
	case minScore == 0:
		minScore = s.minRelevanceScore
	}
	return maxChunks, minScore
}

func (s *RetrieverService) poolFailed(src domain.SourceType) {
	if s.metrics != nil {
		s.metrics.PoolFailed(src.String())
	}
}

func (s *RetrieverService) recordRetrieval(op string, results int, start time.Time) {
	if s.metrics != nil {
		s.metrics.RetrievalCompleted(op, results, time.Since(start))
	}
}

// enabledSources validates and deduplicates requested sources, defaulting to all.
func enabledSources(requested []domain.SourceType) []domain.SourceType {
	if len(requested) == 0 {
		return domain.AllSourceTypes()
	}

	want := make(map[domain.SourceType]bool, len(requested))
	for _, r := range requested {
		if !r.IsValid() {
			logger.Warn("ignoring unknown source type %q", r)
			continue
		}
		want[r] = true
	}

	// Keep merge order stable regardless of request order.
	out := make([]domain.SourceType, 0, len(want))
	for _, st := range domain.AllSourceTypes() {
		if want[st] {
			out = append(out, st)
		}
	}
	return out
}

func untitled(src domain.Source) string {
	if src.Filename != "" {
		return src.Filename
	}
	if src.SourceType == domain.SourceDocument || src.SourceType == "" {
		return "Untitled document"
	}
	return "Untitled " + src.SourceType.Label()
}
