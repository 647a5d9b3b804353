package domain

// IndexOptions configures a single index run.
type IndexOptions struct {
	// ChunkSize is the window length in characters. Zero uses the default.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by consecutive windows.
	// Zero together with a zero ChunkSize uses the default overlap.
	ChunkOverlap int

	// SkipEmbeddings disables embedding generation for this run.
	SkipEmbeddings bool
}

// IndexResult summarises an index run.
type IndexResult struct {
	DocumentID       string
	ChunkCount       int
	Indexed          bool
	TotalTokens      int
	FailedEmbeddings int
}

// NoMinScore passed as a retrieval MinScore disables the relevance threshold.
const NoMinScore = -1.0

// SearchOptions configures a semantic or keyword search.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// MinScore is the minimum similarity a result must reach. Keyword
	// matches in substring mode carry a flat score and are not filtered.
	MinScore float64

	// DocumentIDs restricts the search to these documents when non-empty.
	DocumentIDs []string
}

// RetrievedChunk is a chunk or pool entry returned by a search.
type RetrievedChunk struct {
	// Chunk is the matched chunk. For pool entries only ID, Content and
	// TokenCount are populated.
	Chunk Chunk

	// Score is the raw relevance in [0,1].
	Score float64

	// WeightedScore is Score multiplied by the source type weight.
	WeightedScore float64

	// SourceType is the pool the result came from.
	SourceType SourceType

	// SourceID is the document ID or the pool entry's source ID.
	SourceID string

	// SourceTitle is the pool entry title. Empty for documents until hydrated.
	SourceTitle string
}

// Source pairs a retrieved chunk with display metadata for prompts and citations.
type Source struct {
	DocumentID string
	ChunkID    string
	ChunkIndex int
	Title      string
	Filename   string
	Content    string
	Score      float64
	SourceType SourceType
}

// ContextData is the result of a retrieval.
type ContextData struct {
	HasContext  bool
	Chunks      []RetrievedChunk
	Sources     []Source
	TotalTokens int
}

// EmptyContext returns a ContextData with no results.
func EmptyContext() *ContextData {
	return &ContextData{
		Chunks:  []RetrievedChunk{},
		Sources: []Source{},
	}
}

// EnrichedPrompt is a base prompt with retrieved context appended.
type EnrichedPrompt struct {
	Prompt        string
	HasContext    bool
	Sources       []Source
	ContextTokens int
}

// RetrieveOptions configures a document retrieval.
type RetrieveOptions struct {
	// MaxChunks caps the number of chunks. Zero uses the default.
	MaxChunks int

	// DocumentIDs restricts retrieval to these documents when non-empty.
	DocumentIDs []string

	// MinScore overrides the configured minimum relevance when positive.
	// Zero uses the configured value and NoMinScore disables the threshold.
	MinScore float64
}

// MultiSourceOptions configures a retrieval across content pools.
type MultiSourceOptions struct {
	// Sources lists the enabled pools. Empty enables all of them.
	Sources []SourceType

	// MaxChunks caps the merged result. Zero uses the default.
	MaxChunks int

	// MinScore overrides the configured minimum relevance when positive.
	// Zero uses the configured value and NoMinScore disables the threshold.
	MinScore float64
}
