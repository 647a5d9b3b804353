package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Indexer == nil {
		ports.Indexer = &mockIndexerService{}
	}
	if ports.Retriever == nil {
		ports.Retriever = &mockRetrieverService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func sampleContext() *domain.ContextData {
	return &domain.ContextData{
		HasContext:  true,
		TotalTokens: 12,
		Sources: []domain.Source{
			{DocumentID: "doc-1", ChunkID: "c-1", Title: "Guide", Content: "alpha", Score: 0.9, SourceType: domain.SourceDocument},
			{DocumentID: "conv-1", ChunkID: "p-1", Title: "Chat", Content: "beta", Score: 0.4, SourceType: domain.SourceConversation},
		},
	}
}

func TestServer_handleRetrieveContext(t *testing.T) {
	ctx := context.Background()

	t.Run("single source without prompt", func(t *testing.T) {
		retriever := &mockRetrieverService{data: sampleContext()}
		server := newTestServer(t, &Ports{Retriever: retriever})

		_, out, err := server.handleRetrieveContext(ctx, nil, RetrieveInput{
			Query:       "alpha",
			MaxChunks:   3,
			DocumentIDs: []string{"doc-1"},
		})
		require.NoError(t, err)

		assert.True(t, out.HasContext)
		assert.Equal(t, 12, out.TotalTokens)
		require.Len(t, out.Sources, 2)
		assert.Equal(t, 1, out.Sources[0].Number)
		assert.Equal(t, "document", out.Sources[0].SourceType)
		assert.Equal(t, 2, out.Sources[1].Number)
		assert.Empty(t, out.Prompt)
		assert.Equal(t, 3, retriever.singleOpts.MaxChunks)
		assert.Equal(t, []string{"doc-1"}, retriever.singleOpts.DocumentIDs)
	})

	t.Run("owner switches to multi-source and builds prompt", func(t *testing.T) {
		retriever := &mockRetrieverService{data: sampleContext()}
		server := newTestServer(t, &Ports{Retriever: retriever})

		_, out, err := server.handleRetrieveContext(ctx, nil, RetrieveInput{
			Query:      "alpha",
			OwnerID:    "user-1",
			Sources:    []string{"documents", "conversations"},
			BasePrompt: "You are helpful.",
		})
		require.NoError(t, err)

		assert.Equal(t, "user-1", retriever.multiOwner)
		assert.Equal(t, []domain.SourceType{domain.SourceDocument, domain.SourceConversation}, retriever.multiOpts.Sources)
		assert.True(t, retriever.multiPrompt)
		assert.Equal(t, "You are helpful. [multi]", out.Prompt)
	})

	t.Run("unknown source type", func(t *testing.T) {
		server := newTestServer(t, &Ports{Retriever: &mockRetrieverService{data: sampleContext()}})

		_, _, err := server.handleRetrieveContext(ctx, nil, RetrieveInput{Query: "q", Sources: []string{"video"}})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("empty query", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, _, err := server.handleRetrieveContext(ctx, nil, RetrieveInput{Query: "  "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("retriever error is returned", func(t *testing.T) {
		server := newTestServer(t, &Ports{Retriever: &mockRetrieverService{err: errors.New("boom")}})

		_, _, err := server.handleRetrieveContext(ctx, nil, RetrieveInput{Query: "q"})
		assert.EqualError(t, err, "boom")
	})
}

func TestServer_handleSemanticSearch(t *testing.T) {
	ctx := context.Background()
	results := []domain.RetrievedChunk{
		{Chunk: domain.Chunk{ID: "c-1", DocumentID: "doc-1", ChunkIndex: 2, Content: "hello", CharStart: 10, CharEnd: 15}, Score: 0.8},
	}

	t.Run("semantic by default with default limit", func(t *testing.T) {
		indexer := &mockIndexerService{results: results}
		server := newTestServer(t, &Ports{Indexer: indexer})

		_, out, err := server.handleSemanticSearch(ctx, nil, SearchInput{Query: "hello"})
		require.NoError(t, err)

		assert.Equal(t, 1, indexer.semanticCalls)
		assert.Zero(t, indexer.keywordCalls)
		assert.Equal(t, defaultSearchLimit, indexer.lastOpts.Limit)
		require.Equal(t, 1, out.Count)
		assert.Equal(t, ChunkOutput{
			ChunkID: "c-1", DocumentID: "doc-1", ChunkIndex: 2, Content: "hello",
			CharStart: 10, CharEnd: 15, Score: 0.8,
		}, out.Results[0])
	})

	t.Run("keyword flag", func(t *testing.T) {
		indexer := &mockIndexerService{results: results}
		server := newTestServer(t, &Ports{Indexer: indexer})

		_, _, err := server.handleSemanticSearch(ctx, nil, SearchInput{Query: "hello", Keyword: true, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 1, indexer.keywordCalls)
		assert.Equal(t, 3, indexer.lastOpts.Limit)
	})

	t.Run("error", func(t *testing.T) {
		server := newTestServer(t, &Ports{Indexer: &mockIndexerService{err: domain.ErrInvalidInput}})

		_, _, err := server.handleSemanticSearch(ctx, nil, SearchInput{Query: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleIndexDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and indexes new content", func(t *testing.T) {
		indexer := &mockIndexerService{indexResult: &domain.IndexResult{ChunkCount: 2, Indexed: true, TotalTokens: 40}}
		docs := &mockDocumentService{}
		server := newTestServer(t, &Ports{Indexer: indexer, Document: docs})

		_, out, err := server.handleIndexDocument(ctx, nil, IndexInput{Title: "Notes", Content: "some text", Tags: []string{"a"}})
		require.NoError(t, err)

		require.Len(t, docs.added, 1)
		assert.Equal(t, "Notes", docs.added[0].Title)
		assert.Equal(t, "generated-id", indexer.indexed)
		assert.Equal(t, IndexOutput{DocumentID: "generated-id", ChunkCount: 2, Indexed: true, TotalTokens: 40}, out)
	})

	t.Run("reindexes stored content when only an ID is given", func(t *testing.T) {
		indexer := &mockIndexerService{indexResult: &domain.IndexResult{ChunkCount: 1, Indexed: true}}
		server := newTestServer(t, &Ports{Indexer: indexer})

		_, out, err := server.handleIndexDocument(ctx, nil, IndexInput{DocumentID: "doc-9"})
		require.NoError(t, err)
		assert.Equal(t, "doc-9", indexer.reindexed)
		assert.Equal(t, "doc-9", out.DocumentID)
	})

	t.Run("needs content or id", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, _, err := server.handleIndexDocument(ctx, nil, IndexInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("content without document service", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, _, err := server.handleIndexDocument(ctx, nil, IndexInput{Content: "text"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		indexer := &mockIndexerService{indexResult: &domain.IndexResult{}}
		server := newTestServer(t, &Ports{Indexer: indexer, Document: &mockDocumentService{err: domain.ErrStoreUnavailable}})

		_, _, err := server.handleIndexDocument(ctx, nil, IndexInput{Content: "text"})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Empty(t, indexer.indexed)
	})
}

func TestServer_handleGetDocumentChunks(t *testing.T) {
	ctx := context.Background()

	t.Run("lists chunks in order", func(t *testing.T) {
		indexer := &mockIndexerService{chunks: []domain.Chunk{
			{ID: "c-0", DocumentID: "doc-1", ChunkIndex: 0, Content: "first"},
			{ID: "c-1", DocumentID: "doc-1", ChunkIndex: 1, Content: "second"},
		}}
		server := newTestServer(t, &Ports{Indexer: indexer})

		_, out, err := server.handleGetDocumentChunks(ctx, nil, ChunksInput{DocumentID: "doc-1"})
		require.NoError(t, err)
		require.Equal(t, 2, out.Count)
		assert.Equal(t, "first", out.Chunks[0].Content)
		assert.Equal(t, 1, out.Chunks[1].ChunkIndex)
		assert.Zero(t, out.Chunks[0].Score)
	})

	t.Run("requires document id", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, _, err := server.handleGetDocumentChunks(ctx, nil, ChunksInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleTrackCitations(t *testing.T) {
	ctx := context.Background()

	t.Run("returns citation ids", func(t *testing.T) {
		retriever := &mockRetrieverService{citations: []domain.Citation{{ID: "cit-1"}, {ID: "cit-2"}}}
		server := newTestServer(t, &Ports{Retriever: retriever})

		_, out, err := server.handleTrackCitations(ctx, nil, CitationsInput{
			SessionID: "s-1",
			MessageID: "m-1",
			Sources: []CitationSource{
				{DocumentID: "doc-1", ChunkID: "c-1", Score: 0.9},
				{DocumentID: "doc-2", SourceType: "conversation"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, retriever.trackedCount)
		assert.Equal(t, []string{"cit-1", "cit-2"}, out.CitationIDs)
	})

	t.Run("unknown source type", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, _, err := server.handleTrackCitations(ctx, nil, CitationsInput{
			SessionID: "s", MessageID: "m",
			Sources: []CitationSource{{DocumentID: "d", SourceType: "fax"}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
