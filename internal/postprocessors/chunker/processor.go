// Package chunker splits text into overlapping fixed-size windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits document content into fixed-step sliding windows.
// Sizes and offsets count runes, so multi-byte characters are never split.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker. The overlap must satisfy 0 <= overlap < size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, p.chunkSize)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", domain.ErrInvalidInput, p.overlap, p.chunkSize)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Step returns the distance between consecutive window starts.
func (p *Processor) Step() int {
	return p.chunkSize - p.overlap
}

// Split cuts content into windows starting at 0, step, 2*step, ... until
// the start reaches the content length. Each window is trimmed and
// whitespace-only windows are dropped. CharStart and CharEnd record the
// untrimmed window bounds. Chunk indexes are contiguous from 0.
func (p *Processor) Split(documentID, content string) []domain.Chunk {
	if content == "" {
		return nil
	}

	runes := []rune(content)
	contentLen := len(runes)
	step := p.Step()

	chunks := make([]domain.Chunk, 0, contentLen/step+1)
	index := 0

	for start := 0; start < contentLen; start += step {
		end := start + p.chunkSize
		if end > contentLen {
			end = contentLen
		}

		text := strings.TrimSpace(string(runes[start:end]))
		if text == "" {
			continue
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			ChunkIndex: index,
			Content:    text,
			CharStart:  start,
			CharEnd:    end,
			TokenCount: domain.EstimateTokens(text),
		})
		index++
	}

	return chunks
}
