package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ==================== Documents ====================

func (s *Server) addDocument(c echo.Context) error {
	var req addDocumentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}

	ctx := c.Request().Context()
	doc := &domain.Document{
		ID:       req.ID,
		OwnerID:  req.OwnerID,
		Title:    req.Title,
		Filename: req.Filename,
		Content:  req.Content,
		Tags:     req.Tags,
	}
	if err := s.ports.Document.Add(ctx, doc); err != nil {
		return err
	}

	if !req.SkipIndex {
		result, err := s.ports.Indexer.IndexDocument(ctx, doc.ID, doc.Content, domain.IndexOptions{
			SkipEmbeddings: req.SkipEmbeddings,
		})
		if err != nil {
			return err
		}
		doc.ChunkCount = result.ChunkCount
		doc.Indexed = result.Indexed
	}

	return c.JSON(http.StatusCreated, toDocumentResponse(doc, false))
}

func (s *Server) listDocuments(c echo.Context) error {
	docs, err := s.ports.Document.List(c.Request().Context(), c.QueryParam("owner_id"))
	if err != nil {
		return err
	}
	out := make([]documentResponse, len(docs))
	for i := range docs {
		out[i] = toDocumentResponse(&docs[i], false)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getDocument(c echo.Context) error {
	doc, err := s.ports.Document.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDocumentResponse(doc, true))
}

func (s *Server) removeDocument(c echo.Context) error {
	if err := s.ports.Document.Remove(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// indexDocument indexes the posted content, or reindexes the stored content
// when the body has none.
func (s *Server) indexDocument(c echo.Context) error {
	var req indexRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	opts := domain.IndexOptions{
		ChunkSize:      req.ChunkSize,
		ChunkOverlap:   req.ChunkOverlap,
		SkipEmbeddings: req.SkipEmbeddings,
	}

	var (
		result *domain.IndexResult
		err    error
	)
	if req.Content == "" {
		result, err = s.ports.Indexer.ReindexDocument(ctx, id, opts)
	} else {
		result, err = s.ports.Indexer.IndexDocument(ctx, id, req.Content, opts)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIndexResponse(result))
}

func (s *Server) documentChunks(c echo.Context) error {
	chunks, err := s.ports.Indexer.GetDocumentChunks(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	out := make([]chunkResponse, len(chunks))
	for i := range chunks {
		out[i] = toChunkResponse(chunks[i], 0)
	}
	return c.JSON(http.StatusOK, out)
}

// ==================== Search and retrieval ====================

func (s *Server) search(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}
	if strings.TrimSpace(req.Query) == "" {
		return badRequest("query is required")
	}

	opts := domain.SearchOptions{
		Limit:       req.Limit,
		MinScore:    req.MinScore,
		DocumentIDs: req.DocumentIDs,
	}

	ctx := c.Request().Context()
	var (
		results []domain.RetrievedChunk
		err     error
	)
	if req.Keyword {
		results, err = s.ports.Indexer.KeywordSearch(ctx, req.Query, opts)
	} else {
		results, err = s.ports.Indexer.SemanticSearch(ctx, req.Query, opts)
	}
	if err != nil {
		return err
	}

	out := make([]chunkResponse, len(results))
	for i := range results {
		out[i] = toChunkResponse(results[i].Chunk, results[i].Score)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) retrieve(c echo.Context) error {
	var req retrieveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}

	data, err := s.ports.Retriever.RetrieveContext(c.Request().Context(), req.Query, domain.RetrieveOptions{
		MaxChunks:   req.MaxChunks,
		DocumentIDs: req.DocumentIDs,
		MinScore:    req.MinScore,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContextResponse(data))
}

func (s *Server) retrieveMulti(c echo.Context) error {
	var req multiRetrieveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}
	sources, err := parseSourceTypes(req.Sources)
	if err != nil {
		return err
	}

	data, err := s.ports.Retriever.RetrieveContextMultiSource(c.Request().Context(), req.Query, req.OwnerID, domain.MultiSourceOptions{
		Sources:   sources,
		MaxChunks: req.MaxChunks,
		MinScore:  req.MinScore,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContextResponse(data))
}

// prompt retrieves context for the query and returns the enriched prompt.
func (s *Server) prompt(c echo.Context) error {
	var req promptRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}

	ctx := c.Request().Context()
	multi := req.Multi || req.OwnerID != "" || len(req.Sources) > 0

	var enriched *domain.EnrichedPrompt
	if multi {
		sources, err := parseSourceTypes(req.Sources)
		if err != nil {
			return err
		}
		data, err := s.ports.Retriever.RetrieveContextMultiSource(ctx, req.Query, req.OwnerID, domain.MultiSourceOptions{
			Sources:   sources,
			MaxChunks: req.MaxChunks,
			MinScore:  req.MinScore,
		})
		if err != nil {
			return err
		}
		enriched = s.ports.Retriever.BuildEnrichedPromptMultiSource(ctx, req.Query, req.BasePrompt, req.OwnerID, data)
	} else {
		data, err := s.ports.Retriever.RetrieveContext(ctx, req.Query, domain.RetrieveOptions{
			MaxChunks:   req.MaxChunks,
			DocumentIDs: req.DocumentIDs,
			MinScore:    req.MinScore,
		})
		if err != nil {
			return err
		}
		enriched = s.ports.Retriever.BuildEnrichedPrompt(ctx, req.Query, req.BasePrompt, data)
	}

	return c.JSON(http.StatusOK, promptResponse{
		Prompt:        enriched.Prompt,
		HasContext:    enriched.HasContext,
		Sources:       toSourceResponses(enriched.Sources),
		ContextTokens: enriched.ContextTokens,
	})
}

// ==================== Citations ====================

func (s *Server) trackCitations(c echo.Context) error {
	var req trackCitationsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}

	sources := make([]domain.Source, 0, len(req.Sources))
	for _, src := range req.Sources {
		st := domain.SourceDocument
		if src.SourceType != "" {
			parsed, ok := domain.ParseSourceType(src.SourceType)
			if !ok {
				return badRequest("unknown source type %q", src.SourceType)
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

	citations, err := s.ports.Retriever.TrackCitations(c.Request().Context(), req.SessionID, req.MessageID, sources)
	if err != nil {
		return err
	}

	out := make([]citationResponse, len(citations))
	for i := range citations {
		out[i] = toCitationResponse(citations[i], "")
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *Server) sessionCitations(c echo.Context) error {
	details, err := s.ports.Retriever.GetSessionCitations(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	out := make([]citationResponse, len(details))
	for i := range details {
		out[i] = toCitationResponse(details[i].Citation, details[i].DocumentTitle)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) topCited(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest("invalid limit %q", raw)
		}
		limit = n
	}

	docs, err := s.ports.Retriever.GetTopCitedDocuments(c.Request().Context(), c.QueryParam("owner_id"), limit)
	if err != nil {
		return err
	}
	out := make([]citedDocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = citedDocumentResponse{
			DocumentID:    d.DocumentID,
			Title:         d.Title,
			CitationCount: d.CitationCount,
			AvgRelevance:  d.AvgRelevance,
			LastCitedAt:   d.LastCitedAt,
		}
	}
	return c.JSON(http.StatusOK, out)
}

func parseSourceTypes(names []string) ([]domain.SourceType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]domain.SourceType, 0, len(names))
	for _, name := range names {
		st, ok := domain.ParseSourceType(name)
		if !ok {
			return nil, badRequest("unknown source type %q", name)
		}
		out = append(out, st)
	}
	return out, nil
}
