package domain

import "time"

// SourceType identifies the content pool a retrieved item came from.
type SourceType string

// Known source types.
const (
	SourceDocument         SourceType = "document"
	SourceConversation     SourceType = "conversation"
	SourceScreenshot       SourceType = "screenshot"
	SourceAudio            SourceType = "audio"
	SourceExternalDatabase SourceType = "external_database"
)

// IsValid returns true if the source type is recognised.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceDocument, SourceConversation, SourceScreenshot, SourceAudio, SourceExternalDatabase:
		return true
	default:
		return false
	}
}

// IsPool reports whether the source type is an auto-indexed content pool
// rather than the document index.
func (s SourceType) IsPool() bool {
	return s.IsValid() && s != SourceDocument
}

// Weight is the fixed multiplier applied to raw relevance when results
// from different pools are merged.
func (s SourceType) Weight() float64 {
	switch s {
	case SourceDocument:
		return 1.0
	case SourceExternalDatabase:
		return 0.9
	case SourceConversation:
		return 0.85
	case SourceAudio:
		return 0.8
	case SourceScreenshot:
		return 0.75
	default:
		return 0
	}
}

// Label returns a human-readable name used in prompts.
func (s SourceType) Label() string {
	switch s {
	case SourceDocument:
		return "Document"
	case SourceConversation:
		return "Conversation"
	case SourceScreenshot:
		return "Screenshot"
	case SourceAudio:
		return "Audio transcript"
	case SourceExternalDatabase:
		return "External database"
	default:
		return unknownDescription
	}
}

// String returns the string representation.
func (s SourceType) String() string {
	return string(s)
}

// AllSourceTypes returns every source type in merge order.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceDocument,
		SourceConversation,
		SourceScreenshot,
		SourceAudio,
		SourceExternalDatabase,
	}
}

// ParseSourceType maps user-facing names, including plurals such as
// "documents" or "conversations" and the short form "external", to a SourceType.
func ParseSourceType(s string) (SourceType, bool) {
	switch s {
	case "document", "documents":
		return SourceDocument, true
	case "conversation", "conversations":
		return SourceConversation, true
	case "screenshot", "screenshots":
		return SourceScreenshot, true
	case "audio":
		return SourceAudio, true
	case "external", "external_database":
		return SourceExternalDatabase, true
	default:
		return "", false
	}
}

// PoolEntry is auto-indexed content produced by an external ingestion
// pipeline. The retriever only reads these.
type PoolEntry struct {
	ID              string
	OwnerID         string
	SourceType      SourceType
	SourceID        string
	SourceTitle     string
	Content         string
	ContentSummary  string
	ImportanceScore float64
	IndexedAt       time.Time
}

// Entity is a recurring knowledge-graph entity for an owner.
type Entity struct {
	Name     string
	Type     string
	Mentions int
}
