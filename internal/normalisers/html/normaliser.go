package html

import (
	"bytes"
	"context"
	"html"
	nurl "net/url"
	"path/filepath"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the main article text with readability. Pages where
// readability finds nothing are reduced to text by stripping tags.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rawContent := string(raw.Content)
	title := pageTitle(rawContent)
	content := ""
	format := "html"

	article, err := readability.FromReader(bytes.NewReader(raw.Content), pageURL(raw.URI))
	switch {
	case err != nil:
		logger.Debug("readability failed for %s: %v", raw.URI, err)
	case strings.TrimSpace(article.TextContent) != "":
		content = cleanText(article.TextContent)
		format = "html+readability"
		if t := strings.TrimSpace(article.Title); t != "" {
			title = t
		}
	}

	if content == "" {
		content = stripHTML(rawContent)
	}
	if title == "" {
		title = titleFromMetadataOrURI(raw)
	}

	return &driven.NormaliseResult{
		Title:   title,
		Content: content,
		Format:  format,
	}, nil
}

// pageURL gives readability a base for resolving relative links.
func pageURL(uri string) *nurl.URL {
	if u, err := nurl.Parse(uri); err == nil && u.Scheme != "" && u.Host != "" {
		return u
	}
	return &nurl.URL{Scheme: "file", Path: "/" + strings.TrimPrefix(filepath.ToSlash(uri), "/")}
}

func pageTitle(content string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) > 1 {
		return strings.TrimSpace(html.UnescapeString(matches[1]))
	}
	return ""
}

func titleFromMetadataOrURI(raw *domain.RawDocument) string {
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

// cleanText collapses runs of spaces and drops blank lines.
func cleanText(content string) string {
	content = multiSpaces.ReplaceAllString(content, " ")
	lines := strings.Split(content, "\n")
	result := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
)

// stripHTML drops non-content elements and tags, keeping one line per block.
func stripHTML(content string) string {
	for _, re := range []*regexp.Regexp{scriptTag, styleTag, noscriptTag, headTag, svgTag, htmlComments} {
		content = re.ReplaceAllString(content, "")
	}
	for _, re := range []*regexp.Regexp{openBlockElements, blockElements, brTags, hrTags} {
		content = re.ReplaceAllString(content, "\n")
	}
	content = allTags.ReplaceAllString(content, "")
	return cleanText(html.UnescapeString(content))
}
