package bleve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewMemEngine()
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_SearchRanksMatches(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Index(ctx, domain.Chunk{ID: "a", DocumentID: "d1", Content: "goroutines and channels and goroutines"}))
	require.NoError(t, e.Index(ctx, domain.Chunk{ID: "b", DocumentID: "d1", Content: "a short note about goroutines in a very long sentence about many other unrelated things"}))
	require.NoError(t, e.Index(ctx, domain.Chunk{ID: "c", DocumentID: "d2", Content: "pasta recipes"}))

	hits, err := e.Search(ctx, "goroutines", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestEngine_LimitAndEmptyQuery(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, e.Index(ctx, domain.Chunk{ID: id, Content: "golang"}))
	}

	hits, err := e.Search(ctx, "golang", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = e.Search(ctx, "", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEngine_DeleteAndReplace(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Index(ctx, domain.Chunk{ID: "a", Content: "python django"}))
	require.NoError(t, e.Index(ctx, domain.Chunk{ID: "a", Content: "golang channels"}))

	hits, err := e.Search(ctx, "django", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, e.Delete(ctx, "a"))
	require.NoError(t, e.Delete(ctx, "missing"))
	n, err := e.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEngine_RequiresChunkID(t *testing.T) {
	e := newTestEngine(t)
	err := e.Index(context.Background(), domain.Chunk{Content: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEngine_CancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Search(ctx, "x", 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, e.Index(ctx, domain.Chunk{ID: "a"}), context.Canceled)
}

func TestNewEngine_ReopensOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bleve")
	ctx := context.Background()

	e, err := NewEngine(path)
	require.NoError(t, err)
	require.NoError(t, e.Index(ctx, domain.Chunk{ID: "a", Content: "golang"}))
	require.NoError(t, e.Close())

	e, err = NewEngine(path)
	require.NoError(t, err)
	defer e.Close()
	hits, err := e.Search(ctx, "golang", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
