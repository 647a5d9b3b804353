package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

type fixedNormaliser struct {
	types    []string
	priority int
	format   string
}

func (f *fixedNormaliser) SupportedMIMETypes() []string { return f.types }
func (f *fixedNormaliser) Priority() int                { return f.priority }
func (f *fixedNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{Content: string(raw.Content), Format: f.format}, nil
}

func TestRegistry_PicksHighestPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&fixedNormaliser{types: []string{"text/plain"}, priority: 5, format: "low"})
	r.Register(&fixedNormaliser{types: []string{"text/plain"}, priority: 80, format: "high"})
	r.Register(&fixedNormaliser{types: []string{"text/plain"}, priority: 10, format: "mid"})

	res, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/plain; charset=utf-8", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "high", res.Format)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	for _, mt := range []string{"text/plain", "text/markdown", "text/html", "application/pdf", "TEXT/HTML"} {
		assert.True(t, r.Supports(mt), mt)
	}
	assert.False(t, r.Supports("image/png"))
	assert.Contains(t, r.SupportedMIMETypes(), "text/x-go")

	res, err := r.Normalise(context.Background(), &domain.RawDocument{
		URI:      "notes.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Title\n\n**bold** text"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Title", res.Title)
	assert.Equal(t, "Title\n\nbold text", res.Content)
}

func TestMIMETypeForPath(t *testing.T) {
	tests := map[string]string{
		"/a/b/readme.MD":  "text/markdown",
		"page.htm":        "text/html",
		"paper.pdf":       "application/pdf",
		"main.go":         "text/x-go",
		"Makefile":        "text/plain",
		"notes.unknownxx": "text/plain",
	}
	for path, want := range tests {
		assert.Equal(t, want, MIMETypeForPath(path), path)
	}
}
