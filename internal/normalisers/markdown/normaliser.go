package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips markdown formatting. The title comes from front matter,
// then the first H1, then the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	body := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	front, body := splitFrontMatter(body)

	title := front["title"]
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = metadataTitle(raw)
	}

	return &driven.NormaliseResult{
		Title:   title,
		Content: stripMarkdown(body),
		Format:  "markdown",
	}, nil
}

// splitFrontMatter separates a leading "---" block of "key: value" lines.
func splitFrontMatter(content string) (map[string]string, string) {
	fields := map[string]string{}
	if !strings.HasPrefix(content, "---\n") {
		return fields, content
	}
	end := strings.Index(content[4:], "\n---")
	if end < 0 {
		return fields, content
	}
	block := content[4 : 4+end]
	rest := strings.TrimPrefix(content[4+end+4:], "\n")

	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		fields[strings.ToLower(strings.TrimSpace(key))] = value
	}
	return fields, rest
}

func firstHeading(content string) string {
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

func metadataTitle(raw *domain.RawDocument) string {
	if title, ok := raw.Metadata["title"].(string); ok && title != "" {
		return title
	}
	if raw.URI == "" {
		return ""
	}
	filename := filepath.Base(raw.URI)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	return strings.ReplaceAll(filename, "-", " ")
}

var (
	fenceMarkers  = regexp.MustCompile("(?m)^\\s*```.*$")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis      = regexp.MustCompile(`(^|\W)(\*\*|__|\*|_)([^*_\n]+)(\*\*|__|\*|_)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	hr            = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	listMarkers   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	htmlTags      = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes formatting but keeps code block contents, link
// text and image alt text since they often carry searchable terms.
func stripMarkdown(content string) string {
	content = fenceMarkers.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = hr.ReplaceAllString(content, "")
	content = headings.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$1$3")
	content = htmlTags.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
