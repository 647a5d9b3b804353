package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/normalisers/html"
	"github.com/custodia-labs/recall/internal/normalisers/markdown"
	"github.com/custodia-labs/recall/internal/normalisers/pdf"
	"github.com/custodia-labs/recall/internal/normalisers/plaintext"
)

// Registry dispatches raw documents to the highest-priority normaliser that
// supports their MIME type.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string][]driven.Normaliser)}
}

// DefaultRegistry returns a registry with every built-in normaliser.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(pdf.New())
	return r
}

// Register adds n under each of its MIME types.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mt := range n.SupportedMIMETypes() {
		list := append(r.byMIME[mt], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mt] = list
	}
}

// Normalise converts raw with the best normaliser for its MIME type.
// Parameters such as "; charset=utf-8" are ignored.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mt := baseMIME(raw.MIMEType)
	r.mu.RLock()
	list := r.byMIME[mt]
	r.mu.RUnlock()

	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, raw.MIMEType)
	}
	return list[0].Normalise(ctx, raw)
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// Supports reports whether mimeType has a normaliser.
func (r *Registry) Supports(mimeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byMIME[baseMIME(mimeType)]) > 0
}

var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".pdf":      "application/pdf",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".java":     "text/x-java",
	".c":        "text/x-c",
	".h":        "text/x-c",
	".rb":       "text/x-ruby",
	".sh":       "text/x-shellscript",
	".sql":      "text/x-sql",
	".csv":      "text/csv",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".js":       "text/javascript",
	".ts":       "text/typescript",
	".css":      "text/css",
	".json":     "application/json",
	".xml":      "application/xml",
}

// MIMETypeForPath guesses a MIME type from a file extension. Unknown
// extensions fall back to the system table, then to text/plain.
func MIMETypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return baseMIME(mt)
	}
	return "text/plain"
}

func baseMIME(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
