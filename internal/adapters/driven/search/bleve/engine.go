// Package bleve provides a ranked keyword SearchEngine backed by bleve.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"

	blevesearch "github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/mapping"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

const contentField = "content"

// Ensure Engine implements the interface.
var _ driven.SearchEngine = (*Engine)(nil)

// Engine indexes chunk text under the chunk ID.
type Engine struct {
	index blevesearch.Index
}

// NewMemEngine creates an engine that keeps its index in memory.
func NewMemEngine() (*Engine, error) {
	index, err := blevesearch.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	return &Engine{index: index}, nil
}

// NewEngine opens the index at path, creating it when absent.
func NewEngine(path string) (*Engine, error) {
	if path == "" {
		return NewMemEngine()
	}
	if _, err := os.Stat(path); err == nil {
		index, err := blevesearch.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening index: %w", err)
		}
		return &Engine{index: index}, nil
	}
	index, err := blevesearch.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	return &Engine{index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	return blevesearch.NewIndexMapping()
}

// Index adds or replaces a chunk.
func (e *Engine) Index(ctx context.Context, chunk domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if chunk.ID == "" {
		return fmt.Errorf("%w: chunk id is required", domain.ErrInvalidInput)
	}
	doc := map[string]any{
		contentField:  chunk.Content,
		"document_id": chunk.DocumentID,
	}
	if err := e.index.Index(chunk.ID, doc); err != nil {
		return fmt.Errorf("indexing chunk: %w", err)
	}
	return nil
}

// Delete removes a chunk. Unknown IDs are ignored.
func (e *Engine) Delete(ctx context.Context, chunkID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.index.Delete(chunkID); err != nil {
		return fmt.Errorf("deleting chunk: %w", err)
	}
	return nil
}

// Search returns up to limit chunk IDs ordered by BM25 score.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]driven.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query == "" || limit <= 0 {
		return []driven.SearchHit{}, nil
	}

	q := blevesearch.NewMatchQuery(query)
	q.SetField(contentField)
	req := blevesearch.NewSearchRequestOptions(q, limit, 0, false)

	res, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	hits := make([]driven.SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, driven.SearchHit{ChunkID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Count returns the number of indexed chunks.
func (e *Engine) Count() (uint64, error) {
	return e.index.DocCount()
}

// Close releases the index.
func (e *Engine) Close() error {
	return e.index.Close()
}
