package mcp

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// mockIndexerService is a mock implementation of driving.IndexerService.
type mockIndexerService struct {
	results     []domain.RetrievedChunk
	chunks      []domain.Chunk
	indexResult *domain.IndexResult
	err         error

	keywordCalls  int
	semanticCalls int
	reindexed     string
	indexed       string
	lastOpts      domain.SearchOptions
}

func (m *mockIndexerService) IndexDocument(
	_ context.Context,
	documentID, _ string,
	_ domain.IndexOptions,
) (*domain.IndexResult, error) {
	m.indexed = documentID
	if m.err != nil {
		return nil, m.err
	}
	res := *m.indexResult
	res.DocumentID = documentID
	return &res, nil
}

func (m *mockIndexerService) ReindexDocument(
	_ context.Context,
	documentID string,
	_ domain.IndexOptions,
) (*domain.IndexResult, error) {
	m.reindexed = documentID
	if m.err != nil {
		return nil, m.err
	}
	res := *m.indexResult
	res.DocumentID = documentID
	return &res, nil
}

func (m *mockIndexerService) DeleteDocumentIndex(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIndexerService) SemanticSearch(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	m.semanticCalls++
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockIndexerService) KeywordSearch(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	m.keywordCalls++
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockIndexerService) GetDocumentChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

// mockRetrieverService is a mock implementation of driving.RetrieverService.
type mockRetrieverService struct {
	data      *domain.ContextData
	citations []domain.Citation
	err       error

	multiOwner   string
	multiOpts    domain.MultiSourceOptions
	singleOpts   domain.RetrieveOptions
	multiPrompt  bool
	trackedCount int
}

func (m *mockRetrieverService) RetrieveContext(
	_ context.Context,
	_ string,
	opts domain.RetrieveOptions,
) (*domain.ContextData, error) {
	m.singleOpts = opts
	return m.data, m.err
}

func (m *mockRetrieverService) RetrieveContextMultiSource(
	_ context.Context,
	_, ownerID string,
	opts domain.MultiSourceOptions,
) (*domain.ContextData, error) {
	m.multiOwner = ownerID
	m.multiOpts = opts
	return m.data, m.err
}

func (m *mockRetrieverService) BuildEnrichedPrompt(
	_ context.Context,
	_, basePrompt string,
	data *domain.ContextData,
) *domain.EnrichedPrompt {
	return &domain.EnrichedPrompt{Prompt: basePrompt + " [single]", HasContext: data.HasContext}
}

func (m *mockRetrieverService) BuildEnrichedPromptMultiSource(
	_ context.Context,
	_, basePrompt, _ string,
	data *domain.ContextData,
) *domain.EnrichedPrompt {
	m.multiPrompt = true
	return &domain.EnrichedPrompt{Prompt: basePrompt + " [multi]", HasContext: data.HasContext}
}

func (m *mockRetrieverService) TrackCitations(
	_ context.Context,
	_, _ string,
	sources []domain.Source,
) ([]domain.Citation, error) {
	m.trackedCount = len(sources)
	return m.citations, m.err
}

func (m *mockRetrieverService) GetSessionCitations(_ context.Context, _ string) ([]domain.CitationDetail, error) {
	return nil, m.err
}

func (m *mockRetrieverService) GetTopCitedDocuments(_ context.Context, _ string, _ int) ([]domain.CitedDocument, error) {
	return nil, m.err
}

func (m *mockRetrieverService) SetMaxContextTokens(_ int) error      { return nil }
func (m *mockRetrieverService) SetMinRelevanceScore(_ float64) error { return nil }

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	err       error
	added     []*domain.Document
}

func (m *mockDocumentService) Add(_ context.Context, doc *domain.Document) error {
	if m.err != nil {
		return m.err
	}
	if doc.ID == "" {
		doc.ID = "generated-id"
	}
	m.added = append(m.added, doc)
	return nil
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Remove(_ context.Context, _ string) error {
	return m.err
}
