package httpapi

import (
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type addDocumentRequest struct {
	ID             string   `json:"id,omitempty"`
	OwnerID        string   `json:"owner_id,omitempty"`
	Title          string   `json:"title,omitempty"`
	Filename       string   `json:"filename,omitempty"`
	Content        string   `json:"content"`
	Tags           []string `json:"tags,omitempty"`
	SkipIndex      bool     `json:"skip_index,omitempty"`
	SkipEmbeddings bool     `json:"skip_embeddings,omitempty"`
}

type indexRequest struct {
	Content        string `json:"content,omitempty"`
	ChunkSize      int    `json:"chunk_size,omitempty"`
	ChunkOverlap   int    `json:"chunk_overlap,omitempty"`
	SkipEmbeddings bool   `json:"skip_embeddings,omitempty"`
}

type searchRequest struct {
	Query       string   `json:"query"`
	Limit       int      `json:"limit,omitempty"`
	MinScore    float64  `json:"min_score,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	Keyword     bool     `json:"keyword,omitempty"`
}

type retrieveRequest struct {
	Query       string   `json:"query"`
	MaxChunks   int      `json:"max_chunks,omitempty"`
	MinScore    float64  `json:"min_score,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

type multiRetrieveRequest struct {
	Query     string   `json:"query"`
	OwnerID   string   `json:"owner_id,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	MaxChunks int      `json:"max_chunks,omitempty"`
	MinScore  float64  `json:"min_score,omitempty"`
}

type promptRequest struct {
	Query       string   `json:"query"`
	BasePrompt  string   `json:"base_prompt"`
	OwnerID     string   `json:"owner_id,omitempty"`
	Multi       bool     `json:"multi,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	MaxChunks   int      `json:"max_chunks,omitempty"`
	MinScore    float64  `json:"min_score,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

type citationSource struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id,omitempty"`
	SourceType string  `json:"source_type,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Content    string  `json:"content,omitempty"`
}

type trackCitationsRequest struct {
	SessionID string           `json:"session_id"`
	MessageID string           `json:"message_id"`
	Sources   []citationSource `json:"sources"`
}

type documentResponse struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id,omitempty"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename,omitempty"`
	Content    string    `json:"content,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	Indexed    bool      `json:"indexed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type indexResponse struct {
	DocumentID       string `json:"document_id"`
	ChunkCount       int    `json:"chunk_count"`
	Indexed          bool   `json:"indexed"`
	TotalTokens      int    `json:"total_tokens"`
	FailedEmbeddings int    `json:"failed_embeddings"`
}

type chunkResponse struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
	TokenCount int     `json:"token_count"`
	Score      float64 `json:"score,omitempty"`
}

type sourceResponse struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	ChunkIndex int     `json:"chunk_index"`
	Title      string  `json:"title"`
	Filename   string  `json:"filename,omitempty"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	SourceType string  `json:"source_type"`
}

type contextResponse struct {
	HasContext  bool             `json:"has_context"`
	Sources     []sourceResponse `json:"sources"`
	TotalTokens int              `json:"total_tokens"`
}

type promptResponse struct {
	Prompt        string           `json:"prompt"`
	HasContext    bool             `json:"has_context"`
	Sources       []sourceResponse `json:"sources"`
	ContextTokens int              `json:"context_tokens"`
}

type citationResponse struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	MessageID      string    `json:"message_id"`
	DocumentID     string    `json:"document_id"`
	DocumentTitle  string    `json:"document_title,omitempty"`
	ChunkID        string    `json:"chunk_id,omitempty"`
	RelevanceScore float64   `json:"relevance_score"`
	ContextUsed    string    `json:"context_used,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type citedDocumentResponse struct {
	DocumentID    string    `json:"document_id"`
	Title         string    `json:"title"`
	CitationCount int       `json:"citation_count"`
	AvgRelevance  float64   `json:"avg_relevance"`
	LastCitedAt   time.Time `json:"last_cited_at"`
}

func toDocumentResponse(d *domain.Document, withContent bool) documentResponse {
	resp := documentResponse{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		Title:      d.Title,
		Filename:   d.Filename,
		Tags:       d.Tags,
		ChunkCount: d.ChunkCount,
		Indexed:    d.Indexed,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if withContent {
		resp.Content = d.Content
	}
	return resp
}

func toIndexResponse(r *domain.IndexResult) indexResponse {
	return indexResponse{
		DocumentID:       r.DocumentID,
		ChunkCount:       r.ChunkCount,
		Indexed:          r.Indexed,
		TotalTokens:      r.TotalTokens,
		FailedEmbeddings: r.FailedEmbeddings,
	}
}

func toChunkResponse(c domain.Chunk, score float64) chunkResponse {
	return chunkResponse{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		CharStart:  c.CharStart,
		CharEnd:    c.CharEnd,
		TokenCount: c.TokenCount,
		Score:      score,
	}
}

func toSourceResponses(sources []domain.Source) []sourceResponse {
	out := make([]sourceResponse, len(sources))
	for i, s := range sources {
		out[i] = sourceResponse{
			DocumentID: s.DocumentID,
			ChunkID:    s.ChunkID,
			ChunkIndex: s.ChunkIndex,
			Title:      s.Title,
			Filename:   s.Filename,
			Content:    s.Content,
			Score:      s.Score,
			SourceType: string(s.SourceType),
		}
	}
	return out
}

func toContextResponse(d *domain.ContextData) contextResponse {
	return contextResponse{
		HasContext:  d.HasContext,
		Sources:     toSourceResponses(d.Sources),
		TotalTokens: d.TotalTokens,
	}
}

func toCitationResponse(c domain.Citation, title string) citationResponse {
	return citationResponse{
		ID:             c.ID,
		SessionID:      c.SessionID,
		MessageID:      c.MessageID,
		DocumentID:     c.DocumentID,
		DocumentTitle:  title,
		ChunkID:        c.ChunkID,
		RelevanceScore: c.RelevanceScore,
		ContextUsed:    c.ContextUsed,
		CreatedAt:      c.CreatedAt,
	}
}
