package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ChunkStore persists chunk rows keyed by document.
type ChunkStore interface {
	// ReplaceChunks deletes every chunk of documentID and inserts chunks
	// as one batch. Implementations apply both steps atomically.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// DeleteChunks removes every chunk of documentID.
	DeleteChunks(ctx context.Context, documentID string) error

	// ListChunks returns a document's chunks ordered by chunk index.
	// Embeddings are not loaded.
	ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunks returns chunks by ID. Missing IDs are skipped.
	// Embeddings are not loaded.
	GetChunks(ctx context.Context, ids []string) ([]domain.Chunk, error)

	// ListEmbedded returns up to limit chunks with non-null embeddings,
	// most recent first, optionally restricted to documentIDs.
	ListEmbedded(ctx context.Context, documentIDs []string, limit int) ([]domain.Chunk, error)

	// SearchContent returns up to limit chunks whose content contains
	// query, case-insensitively, optionally restricted to documentIDs.
	SearchContent(ctx context.Context, query string, documentIDs []string, limit int) ([]domain.Chunk, error)
}
