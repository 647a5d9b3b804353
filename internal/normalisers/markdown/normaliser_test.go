package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func normalise(t *testing.T, raw *domain.RawDocument) (string, string) {
	t.Helper()
	res, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "markdown", res.Format)
	return res.Title, res.Content
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_TitleSources(t *testing.T) {
	tests := []struct {
		name     string
		raw      domain.RawDocument
		expected string
	}{
		{
			name:     "front matter",
			raw:      domain.RawDocument{Content: []byte("---\ntitle: \"Go Memory Model\"\ntags: go\n---\n# Heading\nbody")},
			expected: "Go Memory Model",
		},
		{
			name:     "first h1",
			raw:      domain.RawDocument{URI: "notes.md", Content: []byte("intro\n## Sub\n# Channels\ntext")},
			expected: "Channels",
		},
		{
			name:     "heading inside code fence is ignored",
			raw:      domain.RawDocument{URI: "/docs/shell_tips.md", Content: []byte("```\n# comment\n```\ntext")},
			expected: "shell tips",
		},
		{
			name:     "metadata",
			raw:      domain.RawDocument{Content: []byte("plain"), Metadata: map[string]any{"title": "Given"}},
			expected: "Given",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.raw
			title, _ := normalise(t, &raw)
			assert.Equal(t, tt.expected, title)
		})
	}
}

func TestNormalise_FrontMatterRemovedFromContent(t *testing.T) {
	_, content := normalise(t, &domain.RawDocument{Content: []byte("---\ntitle: T\n---\nBody text")})
	assert.Equal(t, "Body text", content)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"heading", "## Goroutines", "Goroutines"},
		{"emphasis", "use **bold** and _italic_ text", "use bold and italic text"},
		{"snake case kept", "call my_func_name here", "call my_func_name here"},
		{"link", "see [the docs](https://go.dev)", "see the docs"},
		{"image alt", "![diagram of channels](c.png)", "diagram of channels"},
		{"inline code", "run `go test`", "run go test"},
		{"code fence kept", "```go\nfmt.Println(1)\n```", "fmt.Println(1)"},
		{"lists", "- one\n* two\n1. three", "one\ntwo\nthree"},
		{"blockquote", "> quoted", "quoted"},
		{"rule", "a\n\n---\n\nb", "a\n\nb"},
		{"html", "<details>x</details>", "x"},
		{"newlines", "a\n\n\n\n\nb", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripMarkdown(tt.input))
		})
	}
}

func TestSplitFrontMatter_Unterminated(t *testing.T) {
	fields, body := splitFrontMatter("---\ntitle: x\nno end")
	assert.Empty(t, fields)
	assert.Equal(t, "---\ntitle: x\nno end", body)
}
