// Package services implements the driving port interfaces: indexing,
// retrieval and prompt assembly, citations, documents and settings.
//
// Services depend only on driven ports, so every backend (sqlite, postgres,
// memory) and every embedding provider plugs in at construction time.
package services
