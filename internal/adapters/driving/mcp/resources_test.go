package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "recall://documents/doc-456",
			expected: "doc-456",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-456",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "recall://documents/doc-456/chunks",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("recall://documents"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists documents", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.Document{
			{ID: "doc-1", Title: "README", Filename: "README.md", ChunkCount: 3, Indexed: true},
			{ID: "doc-2", Title: "Guide"},
		}}
		server := newTestServer(t, &Ports{Document: docs})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("recall://documents"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"id": "doc-1"`)
		assert.Contains(t, result.Contents[0].Text, `"chunk_count": 3`)
		assert.Contains(t, result.Contents[0].Text, "Guide")
	})

	t.Run("list failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{err: errors.New("database error")}})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("recall://documents"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns content", func(t *testing.T) {
		docs := &mockDocumentService{document: &domain.Document{ID: "doc-1", Content: "full text"}}
		server := newTestServer(t, &Ports{Document: docs})

		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("recall://documents/doc-1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "full text", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("missing document", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{err: domain.ErrNotFound}})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("recall://documents/nope"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid URI", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{}})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("recall://other"))
		require.Error(t, err)
	})

	t.Run("nil document service", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("recall://documents/doc-1"))
		require.Error(t, err)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{err: domain.ErrStoreUnavailable}})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("recall://documents/doc-1"))
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Contains(t, err.Error(), "getting document")
	})
}
