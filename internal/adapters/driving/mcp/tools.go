package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// defaultSearchLimit is used when semantic_search gets no limit.
const defaultSearchLimit = 10

// RetrieveInput is the input schema for the retrieve_context tool.
type RetrieveInput struct {
	Query       string   `json:"query" jsonschema:"the question to find context for"`
	MaxChunks   int      `json:"max_chunks,omitempty" jsonschema:"maximum number of chunks to return"`
	MinScore    float64  `json:"min_score,omitempty" jsonschema:"minimum similarity score between 0 and 1; omit for the configured default, -1 for none"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict retrieval to these documents"`
	OwnerID     string   `json:"owner_id,omitempty" jsonschema:"owner of the content pools; enables multi-source retrieval"`
	Sources     []string `json:"sources,omitempty" jsonschema:"source types to search, e.g. document, conversation, audio"`
	BasePrompt  string   `json:"base_prompt,omitempty" jsonschema:"system prompt to enrich with the retrieved context"`
}

// RetrieveOutput is the output schema for the retrieve_context tool.
type RetrieveOutput struct {
	HasContext  bool           `json:"has_context"`
	Sources     []SourceOutput `json:"sources"`
	TotalTokens int            `json:"total_tokens"`
	Prompt      string         `json:"prompt,omitempty"`
}

// SourceOutput is one retrieved source.
type SourceOutput struct {
	Number     int     `json:"number"`
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	ChunkIndex int     `json:"chunk_index"`
	Title      string  `json:"title"`
	SourceType string  `json:"source_type"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// SearchInput is the input schema for the semantic_search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the search query"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	MinScore    float64  `json:"min_score,omitempty" jsonschema:"minimum similarity score between 0 and 1"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict the search to these documents"`
	Keyword     bool     `json:"keyword,omitempty" jsonschema:"use keyword matching instead of embeddings"`
}

// SearchOutput is the output schema for the semantic_search tool.
type SearchOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// ChunkOutput is a chunk with an optional score.
type ChunkOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
	Score      float64 `json:"score,omitempty"`
}

// IndexInput is the input schema for the index_document tool.
type IndexInput struct {
	DocumentID     string   `json:"document_id,omitempty" jsonschema:"document to (re)index; generated when empty"`
	Title          string   `json:"title,omitempty" jsonschema:"document title"`
	Content        string   `json:"content,omitempty" jsonschema:"document text; when empty the stored content is reindexed"`
	OwnerID        string   `json:"owner_id,omitempty" jsonschema:"owner of the document"`
	Tags           []string `json:"tags,omitempty" jsonschema:"document tags"`
	ChunkSize      int      `json:"chunk_size,omitempty" jsonschema:"characters per chunk"`
	ChunkOverlap   int      `json:"chunk_overlap,omitempty" jsonschema:"characters shared by adjacent chunks"`
	SkipEmbeddings bool     `json:"skip_embeddings,omitempty" jsonschema:"store chunks without embeddings"`
}

// IndexOutput is the output schema for the index_document tool.
type IndexOutput struct {
	DocumentID       string `json:"document_id"`
	ChunkCount       int    `json:"chunk_count"`
	Indexed          bool   `json:"indexed"`
	TotalTokens      int    `json:"total_tokens"`
	FailedEmbeddings int    `json:"failed_embeddings"`
}

// ChunksInput is the input schema for the get_document_chunks tool.
type ChunksInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document whose chunks to list"`
}

// ChunksOutput is the output schema for the get_document_chunks tool.
type ChunksOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// CitationSource identifies a source used in an answer.
type CitationSource struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id,omitempty"`
	SourceType string  `json:"source_type,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Content    string  `json:"content,omitempty"`
}

// CitationsInput is the input schema for the track_citations tool.
type CitationsInput struct {
	SessionID string           `json:"session_id" jsonschema:"chat session the answer belongs to"`
	MessageID string           `json:"message_id" jsonschema:"message that cited the sources"`
	Sources   []CitationSource `json:"sources" jsonschema:"sources cited in the answer"`
}

// CitationsOutput is the output schema for the track_citations tool.
type CitationsOutput struct {
	CitationIDs []string `json:"citation_ids"`
	Count       int      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve numbered context sources for a question, optionally across content pools",
	}, s.handleRetrieveContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Search indexed chunks by meaning, or by keyword",
	}, s.handleSemanticSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_document",
		Description: "Store a document and index it for retrieval",
	}, s.handleIndexDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document_chunks",
		Description: "List the chunks of an indexed document in order",
	}, s.handleGetDocumentChunks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "track_citations",
		Description: "Record which document sources an answer cited",
	}, s.handleTrackCitations)
}

func (s *Server) handleRetrieveContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	multi := input.OwnerID != "" || len(input.Sources) > 0

	var (
		data *domain.ContextData
		err  error
	)
	if multi {
		sources, perr := parseSourceTypes(input.Sources)
		if perr != nil {
			return nil, RetrieveOutput{}, perr
		}
		data, err = s.ports.Retriever.RetrieveContextMultiSource(ctx, input.Query, input.OwnerID, domain.MultiSourceOptions{
			Sources:   sources,
			MaxChunks: input.MaxChunks,
			MinScore:  input.MinScore,
		})
	} else {
		data, err = s.ports.Retriever.RetrieveContext(ctx, input.Query, domain.RetrieveOptions{
			MaxChunks:   input.MaxChunks,
			DocumentIDs: input.DocumentIDs,
			MinScore:    input.MinScore,
		})
	}
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		HasContext:  data.HasContext,
		Sources:     toSourceOutputs(data.Sources),
		TotalTokens: data.TotalTokens,
	}

	if input.BasePrompt != "" {
		var prompt *domain.EnrichedPrompt
		if multi {
			prompt = s.ports.Retriever.BuildEnrichedPromptMultiSource(ctx, input.Query, input.BasePrompt, input.OwnerID, data)
		} else {
			prompt = s.ports.Retriever.BuildEnrichedPrompt(ctx, input.Query, input.BasePrompt, data)
		}
		output.Prompt = prompt.Prompt
	}

	return nil, output, nil
}

func (s *Server) handleSemanticSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	opts := domain.SearchOptions{
		Limit:       limit,
		MinScore:    input.MinScore,
		DocumentIDs: input.DocumentIDs,
	}

	var (
		results []domain.RetrievedChunk
		err     error
	)
	if input.Keyword {
		results, err = s.ports.Indexer.KeywordSearch(ctx, input.Query, opts)
	} else {
		results, err = s.ports.Indexer.SemanticSearch(ctx, input.Query, opts)
	}
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]ChunkOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = toChunkOutput(results[i].Chunk)
		output.Results[i].Score = results[i].Score
	}

	return nil, output, nil
}

func (s *Server) handleIndexDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	opts := domain.IndexOptions{
		ChunkSize:      input.ChunkSize,
		ChunkOverlap:   input.ChunkOverlap,
		SkipEmbeddings: input.SkipEmbeddings,
	}

	var (
		result *domain.IndexResult
		err    error
	)
	switch {
	case input.Content == "" && input.DocumentID != "":
		result, err = s.ports.Indexer.ReindexDocument(ctx, input.DocumentID, opts)
	case input.Content == "":
		return nil, IndexOutput{}, fmt.Errorf("%w: content or document_id is required", domain.ErrInvalidInput)
	case s.ports.Document == nil:
		return nil, IndexOutput{}, fmt.Errorf("%w: document service not configured", domain.ErrInvalidInput)
	default:
		doc := &domain.Document{
			ID:      input.DocumentID,
			OwnerID: input.OwnerID,
			Title:   input.Title,
			Content: input.Content,
			Tags:    input.Tags,
		}
		if err := s.ports.Document.Add(ctx, doc); err != nil {
			return nil, IndexOutput{}, err
		}
		result, err = s.ports.Indexer.IndexDocument(ctx, doc.ID, doc.Content, opts)
	}
	if err != nil {
		return nil, IndexOutput{}, err
	}

	return nil, IndexOutput{
		DocumentID:       result.DocumentID,
		ChunkCount:       result.ChunkCount,
		Indexed:          result.Indexed,
		TotalTokens:      result.TotalTokens,
		FailedEmbeddings: result.FailedEmbeddings,
	}, nil
}

func (s *Server) handleGetDocumentChunks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChunksInput,
) (*mcp.CallToolResult, ChunksOutput, error) {
	if input.DocumentID == "" {
		return nil, ChunksOutput{}, fmt.Errorf("%w: document_id is required", domain.ErrInvalidInput)
	}

	chunks, err := s.ports.Indexer.GetDocumentChunks(ctx, input.DocumentID)
	if err != nil {
		return nil, ChunksOutput{}, err
	}

	output := ChunksOutput{
		Chunks: make([]ChunkOutput, len(chunks)),
		Count:  len(chunks),
	}
	for i := range chunks {
		output.Chunks[i] = toChunkOutput(chunks[i])
	}
	return nil, output, nil
}

func (s *Server) handleTrackCitations(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CitationsInput,
) (*mcp.CallToolResult, CitationsOutput, error) {
	sources := make([]domain.Source, 0, len(input.Sources))
	for _, src := range input.Sources {
		st := domain.SourceDocument
		if src.SourceType != "" {
			parsed, ok := domain.ParseSourceType(src.SourceType)
			if !ok {
				return nil, CitationsOutput{}, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, src.SourceType)
			}
			st = parsed
		}
		sources = append(sources, domain.Source{
			DocumentID: src.DocumentID,
			ChunkID:    src.ChunkID,
			Score:      src.Score,
			Content:    src.Content,
			SourceType: st,
		})
	}

	citations, err := s.ports.Retriever.TrackCitations(ctx, input.SessionID, input.MessageID, sources)
	if err != nil {
		return nil, CitationsOutput{}, err
	}

	output := CitationsOutput{
		CitationIDs: make([]string, len(citations)),
		Count:       len(citations),
	}
	for i := range citations {
		output.CitationIDs[i] = citations[i].ID
	}
	return nil, output, nil
}

func toSourceOutputs(sources []domain.Source) []SourceOutput {
	out := make([]SourceOutput, len(sources))
	for i, src := range sources {
		out[i] = SourceOutput{
			Number:     i + 1,
			DocumentID: src.DocumentID,
			ChunkID:    src.ChunkID,
			ChunkIndex: src.ChunkIndex,
			Title:      src.Title,
			SourceType: string(src.SourceType),
			Score:      src.Score,
			Content:    src.Content,
		}
	}
	return out
}

func toChunkOutput(c domain.Chunk) ChunkOutput {
	return ChunkOutput{
		ChunkID:    c.ID,
		DocumentID: c.DocumentID,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		CharStart:  c.CharStart,
		CharEnd:    c.CharEnd,
	}
}

func parseSourceTypes(names []string) ([]domain.SourceType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]domain.SourceType, 0, len(names))
	for _, name := range names {
		st, ok := domain.ParseSourceType(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, name)
		}
		out = append(out, st)
	}
	return out, nil
}
