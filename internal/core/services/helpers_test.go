package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// vocab gives each test word its own axis so cosine scores are predictable.
var vocab = []string{"golang", "channels", "goroutines", "python", "django", "cooking", "pasta"}

// vocabEmbedder embeds text as word counts over vocab.
type vocabEmbedder struct {
	mu       sync.Mutex
	fail     map[string]bool
	calls    int
	delay    time.Duration
	inFlight int
	maxSeen  int
}

func newVocabEmbedder() *vocabEmbedder {
	return &vocabEmbedder{fail: make(map[string]bool)}
}

func (e *vocabEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.inFlight++
	if e.inFlight > e.maxSeen {
		e.maxSeen = e.inFlight
	}
	fail := e.fail[text]
	delay := e.delay
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight--
		e.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("embedding backend unavailable")
	}

	vec := make([]float32, len(vocab))
	lower := strings.ToLower(text)
	for i, w := range vocab {
		vec[i] = float32(strings.Count(lower, w))
	}
	return vec, nil
}

func (e *vocabEmbedder) Name() string    { return "vocab" }
func (e *vocabEmbedder) Dimensions() int { return len(vocab) }

// recordingMetrics captures what the services report.
type recordingMetrics struct {
	mu         sync.Mutex
	indexRuns  int
	indexErrs  int
	retrievals map[string]int
	pools      []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{retrievals: make(map[string]int)}
}

func (m *recordingMetrics) IndexCompleted(_, _ int, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexRuns++
	if err != nil {
		m.indexErrs++
	}
}

func (m *recordingMetrics) RetrievalCompleted(op string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrievals[op]++
}

func (m *recordingMetrics) EmbeddingFallback(string) {}

func (m *recordingMetrics) PoolFailed(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools = append(m.pools, source)
}

// failingPoolStore fails or panics for selected source types.
type failingPoolStore struct {
	*memory.PoolStore
	fail  map[domain.SourceType]bool
	panic map[domain.SourceType]bool
}

func (s *failingPoolStore) ListCandidates(
	ctx context.Context, ownerID string, source domain.SourceType, limit int,
) ([]domain.PoolEntry, error) {
	if s.panic[source] {
		panic("pool reader crashed")
	}
	if s.fail[source] {
		return nil, errors.New("pool table missing")
	}
	return s.PoolStore.ListCandidates(ctx, ownerID, source, limit)
}

// staticPrompts serves fixed prompt fragments.
type staticPrompts map[string]string

func (p staticPrompts) Load(name string) (string, error) {
	if text, ok := p[name]; ok {
		return text, nil
	}
	return "", domain.ErrNotFound
}

func (p staticPrompts) Reload() {}

// recordingCitationStore counts writes.
type recordingCitationStore struct {
	driven.CitationStore
	inserts int
	err     error
}

func (s *recordingCitationStore) InsertCitations(ctx context.Context, citations []domain.Citation) error {
	s.inserts++
	if s.err != nil {
		return s.err
	}
	return s.CitationStore.InsertCitations(ctx, citations)
}

type fixture struct {
	docs      *memory.DocumentStore
	citations *memory.CitationStore
	pools     *memory.PoolStore
	embedder  *vocabEmbedder
	metrics   *recordingMetrics
	indexer   *IndexerService
	retriever *RetrieverService
}

func newFixture() *fixture {
	docs := memory.NewDocumentStore()
	f := &fixture{
		docs:      docs,
		citations: memory.NewCitationStore(docs),
		pools:     memory.NewPoolStore(),
		embedder:  newVocabEmbedder(),
		metrics:   newRecordingMetrics(),
	}
	f.indexer = NewIndexerService(docs, docs, f.embedder)
	f.indexer.SetMetrics(f.metrics)
	f.retriever = NewRetrieverService(f.indexer, docs, f.citations)
	f.retriever.SetPoolStore(f.pools)
	f.retriever.SetEntityStore(f.pools)
	f.retriever.SetMetrics(f.metrics)
	return f
}

// addIndexed stores a document and indexes it as a single chunk.
func (f *fixture) addIndexed(ctx context.Context, id, owner, title, content string) error {
	doc := &domain.Document{ID: id, OwnerID: owner, Title: title, Filename: id + ".txt", Content: content}
	if err := f.docs.SaveDocument(ctx, doc); err != nil {
		return err
	}
	_, err := f.indexer.IndexDocument(ctx, id, content, domain.IndexOptions{})
	return err
}
