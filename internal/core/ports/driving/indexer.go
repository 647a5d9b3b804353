package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// IndexerService chunks, embeds and searches document text.
type IndexerService interface {
	// IndexDocument replaces all chunks of documentID with chunks of content.
	IndexDocument(ctx context.Context, documentID, content string, opts domain.IndexOptions) (*domain.IndexResult, error)

	// ReindexDocument indexes the stored content of documentID.
	ReindexDocument(ctx context.Context, documentID string, opts domain.IndexOptions) (*domain.IndexResult, error)

	// DeleteDocumentIndex removes every chunk of documentID.
	DeleteDocumentIndex(ctx context.Context, documentID string) error

	// SemanticSearch ranks chunks by cosine similarity to the query.
	// Falls back to KeywordSearch when the query cannot be embedded.
	SemanticSearch(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievedChunk, error)

	// KeywordSearch matches chunks containing the query.
	KeywordSearch(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievedChunk, error)

	// GetDocumentChunks returns a document's chunks in order, without embeddings.
	GetDocumentChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
}
