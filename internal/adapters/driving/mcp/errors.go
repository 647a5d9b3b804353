// Package mcp provides an MCP (Model Context Protocol) server adapter for recall.
// It lets AI assistants retrieve context from, and add documents to, the index.
package mcp

import "errors"

var (
	// ErrMissingIndexerService is returned when the indexer is not provided.
	ErrMissingIndexerService = errors.New("mcp: indexer service is required")

	// ErrMissingRetrieverService is returned when the retriever is not provided.
	ErrMissingRetrieverService = errors.New("mcp: retriever service is required")
)
