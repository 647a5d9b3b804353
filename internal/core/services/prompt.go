package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// entityLimit is how many related entities are listed in multi-source prompts.
const entityLimit = 10

// DefaultCitationInstructions precede the retrieved context in enriched prompts.
const DefaultCitationInstructions = driven.DefaultCitationInstructions

// PackSources keeps sources in order while their cumulative estimated token
// cost fits within budget, stopping at the first source that would overflow.
// It returns the kept prefix and its token cost.
func PackSources(sources []domain.Source, budget int) ([]domain.Source, int) {
	used := 0
	for i, src := range sources {
		cost := domain.EstimateTokens(src.Content)
		if used+cost > budget {
			return sources[:i], used
		}
		used += cost
	}
	return sources, used
}

// BuildEnrichedPrompt appends retrieved context to basePrompt. When no
// source fits the budget the base prompt is returned unchanged.
func (s *RetrieverService) BuildEnrichedPrompt(
	ctx context.Context, query, basePrompt string, data *domain.ContextData,
) *domain.EnrichedPrompt {
	return s.buildPrompt(ctx, query, basePrompt, "", data, false)
}

// BuildEnrichedPromptMultiSource is BuildEnrichedPrompt with source type
// labels and a block of the owner's related entities.
func (s *RetrieverService) BuildEnrichedPromptMultiSource(
	ctx context.Context, query, basePrompt, ownerID string, data *domain.ContextData,
) *domain.EnrichedPrompt {
	return s.buildPrompt(ctx, query, basePrompt, ownerID, data, true)
}

func (s *RetrieverService) buildPrompt(
	ctx context.Context, query, basePrompt, ownerID string, data *domain.ContextData, multi bool,
) *domain.EnrichedPrompt {
	logger.Section("Build Enriched Prompt")

	if data == nil || !data.HasContext || len(data.Sources) == 0 {
		logger.Debug("No context, using base prompt")
		return &domain.EnrichedPrompt{Prompt: basePrompt, Sources: []domain.Source{}}
	}

	budget := s.MaxContextTokens()
	packed, used := PackSources(data.Sources, budget)
	logger.Debug("Packed %d of %d sources, %d of %d tokens", len(packed), len(data.Sources), used, budget)
	if len(packed) == 0 {
		return &domain.EnrichedPrompt{Prompt: basePrompt, Sources: []domain.Source{}}
	}

	var b strings.Builder
	if basePrompt != "" {
		b.WriteString(basePrompt)
		b.WriteString("\n\n")
	}
	b.WriteString("## Relevant context\n\n")
	b.WriteString(s.citationInstructions())
	b.WriteString("\n\n")

	for i, src := range packed {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		writeSource(&b, i+1, src, multi)
	}

	if multi {
		if block := s.entityBlock(ctx, ownerID); block != "" {
			b.WriteString("\n")
			b.WriteString(block)
		}
	}

	if q := strings.TrimSpace(query); q != "" {
		b.WriteString("\nUser question: ")
		b.WriteString(q)
		b.WriteString("\n")
	}

	return &domain.EnrichedPrompt{
		Prompt:        b.String(),
		HasContext:    true,
		Sources:       packed,
		ContextTokens: used,
	}
}

func writeSource(b *strings.Builder, n int, src domain.Source, withType bool) {
	relevance := int(math.Round(clamp01(src.Score) * 100))
	if withType {
		fmt.Fprintf(b, "[%d] %s: %s (relevance %d%%)\n", n, src.SourceType.Label(), src.Title, relevance)
	} else {
		fmt.Fprintf(b, "[%d] %s (relevance %d%%)\n", n, src.Title, relevance)
	}
	b.WriteString(src.Content)
	b.WriteString("\n")
}

func (s *RetrieverService) citationInstructions() string {
	if s.prompts == nil {
		return DefaultCitationInstructions
	}
	text, err := s.prompts.Load(driven.PromptCitationInstructions)
	if err != nil || strings.TrimSpace(text) == "" {
		return DefaultCitationInstructions
	}
	return strings.TrimSpace(text)
}

// entityBlock lists the owner's top entities as plain text. Lookup failures
// leave the block out.
func (s *RetrieverService) entityBlock(ctx context.Context, ownerID string) string {
	if s.entities == nil {
		return ""
	}

	entities, err := s.entities.TopEntities(ctx, ownerID, entityLimit)
	if err != nil {
		logger.Warn("load related entities: %v", err)
		return ""
	}
	if len(entities) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Related entities\n\n")
	for _, e := range entities {
		if e.Type != "" {
			fmt.Fprintf(&b, "- %s (%s, %d mentions)\n", e.Name, e.Type, e.Mentions)
		} else {
			fmt.Fprintf(&b, "- %s (%d mentions)\n", e.Name, e.Mentions)
		}
	}
	return b.String()
}
