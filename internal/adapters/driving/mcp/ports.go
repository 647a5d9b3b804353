package mcp

import (
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Indexer chunks, embeds and searches documents.
	Indexer driving.IndexerService

	// Retriever assembles context and records citations.
	Retriever driving.RetrieverService

	// Document stores documents. Optional; without it index_document only
	// accepts IDs of documents that already exist.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Indexer == nil {
		return ErrMissingIndexerService
	}
	if p.Retriever == nil {
		return ErrMissingRetrieverService
	}
	return nil
}
