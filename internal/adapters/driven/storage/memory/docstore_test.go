package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func seedDocument(t *testing.T, store *DocumentStore, id, owner string) {
	t.Helper()
	err := store.SaveDocument(context.Background(), &domain.Document{
		ID:        id,
		OwnerID:   owner,
		Title:     "Title " + id,
		Content:   "content",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveDocument_CopiesTags(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	doc := &domain.Document{ID: "doc-1", Tags: []string{"a"}}
	require.NoError(t, store.SaveDocument(ctx, doc))

	doc.Tags[0] = "mutated"

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Tags)
}

func TestDocumentStore_GetDocuments_SkipsMissing(t *testing.T) {
	store := NewDocumentStore()
	seedDocument(t, store, "doc-1", "u1")
	seedDocument(t, store, "doc-2", "u1")

	docs, err := store.GetDocuments(context.Background(), []string{"doc-2", "missing", "doc-1", "doc-2"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-2", docs[0].ID)
	assert.Equal(t, "doc-1", docs[1].ID)
}

func TestDocumentStore_ListDocuments_FiltersByOwner(t *testing.T) {
	store := NewDocumentStore()
	seedDocument(t, store, "doc-1", "u1")
	seedDocument(t, store, "doc-2", "u2")

	docs, err := store.ListDocuments(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)

	all, err := store.ListDocuments(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDocumentStore_UpdateIndexState(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	seedDocument(t, store, "doc-1", "")

	require.NoError(t, store.UpdateIndexState(ctx, "doc-1", 3, true))
	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, doc.ChunkCount)
	assert.True(t, doc.Indexed)

	assert.ErrorIs(t, store.UpdateIndexState(ctx, "missing", 1, true), domain.ErrNotFound)
}

func TestDocumentStore_ReplaceChunks_SwapsSet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	first := []domain.Chunk{
		{ID: "a", ChunkIndex: 0, Content: "one"},
		{ID: "b", ChunkIndex: 1, Content: "two"},
	}
	require.NoError(t, store.ReplaceChunks(ctx, "doc-1", first))
	require.NoError(t, store.ReplaceChunks(ctx, "doc-1", []domain.Chunk{{ID: "c", ChunkIndex: 0, Content: "three"}}))

	chunks, err := store.ListChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c", chunks[0].ID)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
}

func TestDocumentStore_ListChunks_OrderedWithoutEmbeddings(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.ReplaceChunks(ctx, "doc-1", []domain.Chunk{
		{ID: "b", ChunkIndex: 1, Embedding: []float32{1}},
		{ID: "a", ChunkIndex: 0, Embedding: []float32{1}},
	}))

	chunks, err := store.ListChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].ID)
	assert.Equal(t, "b", chunks[1].ID)
	assert.Nil(t, chunks[0].Embedding)
}

func TestDocumentStore_ListEmbedded_RecentFirstAndLimited(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.ReplaceChunks(ctx, "old", []domain.Chunk{
		{ID: "old-0", Embedding: []float32{1}, CreatedAt: base.Add(-time.Hour)},
	}))
	require.NoError(t, store.ReplaceChunks(ctx, "new", []domain.Chunk{
		{ID: "new-0", Embedding: []float32{1}, CreatedAt: base},
		{ID: "new-1", ChunkIndex: 1, CreatedAt: base},
	}))

	chunks, err := store.ListEmbedded(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "new-0", chunks[0].ID)
	assert.Equal(t, "old-0", chunks[1].ID)
	assert.NotEmpty(t, chunks[0].Embedding)

	limited, err := store.ListEmbedded(ctx, nil, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	scoped, err := store.ListEmbedded(ctx, []string{"old"}, 10)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "old-0", scoped[0].ID)
}

func TestDocumentStore_SearchContent_CaseInsensitive(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.ReplaceChunks(ctx, "doc-1", []domain.Chunk{
		{ID: "a", Content: "The Go Programming Language"},
		{ID: "b", ChunkIndex: 1, Content: "unrelated"},
	}))

	chunks, err := store.SearchContent(ctx, "programming", nil, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a", chunks[0].ID)
}

func TestDocumentStore_DeleteDocument_CascadesChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	seedDocument(t, store, "doc-1", "")
	require.NoError(t, store.ReplaceChunks(ctx, "doc-1", []domain.Chunk{{ID: "a"}}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	chunks, err := store.GetChunks(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
