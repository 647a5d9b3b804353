package domain

import "time"

// Citation links a retrieved chunk to the conversation turn in which it
// was used. Citations are immutable once created.
type Citation struct {
	// ID is the unique identifier.
	ID string

	// SessionID is the conversation session.
	SessionID string

	// MessageID is the message within the session.
	MessageID string

	// DocumentID is the cited document.
	DocumentID string

	// ChunkID is the cited chunk.
	ChunkID string

	// RelevanceScore is the retrieval score in [0,1].
	RelevanceScore float64

	// ContextUsed is the chunk text at the time it was used.
	ContextUsed string

	// CreatedAt is when the citation was recorded.
	CreatedAt time.Time
}

// CitationDetail is a citation joined with its document title.
type CitationDetail struct {
	Citation
	DocumentTitle string
}

// CitedDocument is an aggregate of citations per document.
type CitedDocument struct {
	DocumentID    string
	Title         string
	CitationCount int
	AvgRelevance  float64
	LastCitedAt   time.Time
}
