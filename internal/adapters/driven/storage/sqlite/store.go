package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// dbFile is the database file name inside the data directory.
const dbFile = "recall.db"

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.recall/data/recall.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// CitationStore returns a CitationStore interface backed by this store.
func (s *Store) CitationStore() driven.CitationStore {
	return &citationStore{store: s}
}

// PoolStore returns a PoolStore interface backed by this store.
func (s *Store) PoolStore() driven.PoolStore {
	return &poolStore{store: s}
}

// EntityStore returns an EntityStore interface backed by this store.
func (s *Store) EntityStore() driven.EntityStore {
	return &entityStore{store: s}
}

// migrate runs all pending migrations, recording each applied version.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, owner_id, title, filename, content, tags, chunk_count, indexed, created_at, updated_at`

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			title = excluded.title,
			filename = excluded.filename,
			content = excluded.content,
			tags = excluded.tags,
			chunk_count = excluded.chunk_count,
			indexed = excluded.indexed,
			updated_at = excluded.updated_at
	`, doc.ID, doc.OwnerID, doc.Title, doc.Filename, doc.Content, string(tagsJSON),
		doc.ChunkCount, doc.Indexed, doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// GetDocuments retrieves the documents that exist among ids in one query.
func (s *documentStore) GetDocuments(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}

	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// ListDocuments lists documents for an owner, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// UpdateIndexState writes back the chunk count and indexed flag.
func (s *documentStore) UpdateIndexState(ctx context.Context, id string, chunkCount int, indexed bool) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET chunk_count = ?, indexed = ?, updated_at = ? WHERE id = ?
	`, chunkCount, indexed, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating index state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating index state: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document with its chunks and citations.
// Chunks carry no foreign key, since a document may be indexed before it is stored.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{
		"DELETE FROM citations WHERE document_id = ?",
		"DELETE FROM chunks WHERE document_id = ?",
		"DELETE FROM documents WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

const chunkColumns = `id, document_id, chunk_index, content, char_start, char_end, token_count, created_at`

// ReplaceChunks deletes a document's chunks and inserts the new set in one transaction.
func (s *chunkStore) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (`+chunkColumns+`, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, c := range chunks {
			if _, err := stmt.ExecContext(ctx, c.ID, documentID, c.ChunkIndex, c.Content,
				c.CharStart, c.CharEnd, c.TokenCount, c.CreatedAt.UTC(), float32SliceToBytes(c.Embedding)); err != nil {
				return fmt.Errorf("saving chunk: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteChunks removes every chunk of a document.
func (s *chunkStore) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// ListChunks returns a document's chunks by index, without embeddings.
func (s *chunkStore) ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM chunks WHERE document_id = ? ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows, false)
}

// GetChunks returns chunks by ID, without embeddings.
func (s *chunkStore) GetChunks(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	if len(ids) == 0 {
		return []domain.Chunk{}, nil
	}

	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows, false)
}

// ListEmbedded returns up to limit embedded chunks, most recent first.
func (s *chunkStore) ListEmbedded(ctx context.Context, documentIDs []string, limit int) ([]domain.Chunk, error) {
	query := `SELECT ` + chunkColumns + `, embedding FROM chunks WHERE embedding IS NOT NULL`
	var args []any
	if len(documentIDs) > 0 {
		query += ` AND document_id IN (` + placeholders(len(documentIDs)) + `)`
		args = stringArgs(documentIDs)
	}
	query += ` ORDER BY created_at DESC, document_id, chunk_index LIMIT ?`
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying embedded chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows, true)
}

// SearchContent returns up to limit chunks containing query. Case folding
// covers ASCII only.
func (s *chunkStore) SearchContent(ctx context.Context, query string, documentIDs []string, limit int) ([]domain.Chunk, error) {
	sqlQuery := `SELECT ` + chunkColumns + ` FROM chunks WHERE instr(lower(content), lower(?)) > 0`
	args := []any{query}
	if len(documentIDs) > 0 {
		sqlQuery += ` AND document_id IN (` + placeholders(len(documentIDs)) + `)`
		args = append(args, stringArgs(documentIDs)...)
	}
	sqlQuery += ` ORDER BY created_at DESC, document_id, chunk_index LIMIT ?`
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows, false)
}

// ==================== Citation Store ====================

// citationStore implements driven.CitationStore.
type citationStore struct {
	store *Store
}

var _ driven.CitationStore = (*citationStore)(nil)

// InsertCitations writes citations in one transaction.
func (s *citationStore) InsertCitations(ctx context.Context, citations []domain.Citation) error {
	if len(citations) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO citations (id, session_id, message_id, document_id, chunk_id, relevance_score, context_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range citations {
		if _, err := stmt.ExecContext(ctx, c.ID, c.SessionID, c.MessageID, c.DocumentID, c.ChunkID,
			c.RelevanceScore, c.ContextUsed, c.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("saving citation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListSessionCitations returns a session's citations with document titles, oldest first.
func (s *citationStore) ListSessionCitations(ctx context.Context, sessionID string) ([]domain.CitationDetail, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.session_id, c.message_id, c.document_id, c.chunk_id,
			c.relevance_score, c.context_used, c.created_at, COALESCE(d.title, '')
		FROM citations c
		LEFT JOIN documents d ON d.id = c.document_id
		WHERE c.session_id = ?
		ORDER BY c.created_at, c.id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying citations: %w", err)
	}
	defer rows.Close()

	details := []domain.CitationDetail{}
	for rows.Next() {
		var d domain.CitationDetail
		if err := rows.Scan(&d.ID, &d.SessionID, &d.MessageID, &d.DocumentID, &d.ChunkID,
			&d.RelevanceScore, &d.ContextUsed, &d.CreatedAt, &d.DocumentTitle); err != nil {
			return nil, fmt.Errorf("scanning citation: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// TopCitedDocuments aggregates citations per document, most cited first.
func (s *citationStore) TopCitedDocuments(ctx context.Context, ownerID string, limit int) ([]domain.CitedDocument, error) {
	query := `
		SELECT d.id, d.title, COUNT(c.id), AVG(c.relevance_score), MAX(c.created_at)
		FROM citations c
		JOIN documents d ON d.id = c.document_id`
	var args []any
	if ownerID != "" {
		query += ` WHERE d.owner_id = ?`
		args = append(args, ownerID)
	}
	query += `
		GROUP BY d.id, d.title
		ORDER BY COUNT(c.id) DESC, MAX(c.created_at) DESC, d.id
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cited documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.CitedDocument{}
	for rows.Next() {
		var d domain.CitedDocument
		var last string
		if err := rows.Scan(&d.DocumentID, &d.Title, &d.CitationCount, &d.AvgRelevance, &last); err != nil {
			return nil, fmt.Errorf("scanning cited document: %w", err)
		}
		d.LastCitedAt = parseTime(last)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ==================== Pool Store ====================

// poolStore implements driven.PoolStore.
type poolStore struct {
	store *Store
}

var _ driven.PoolStore = (*poolStore)(nil)

// SavePoolEntry stores or updates an auto-indexed entry.
func (s *poolStore) SavePoolEntry(ctx context.Context, e *domain.PoolEntry) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO auto_indexed_content
			(id, owner_id, source_type, source_id, source_title, content, content_summary, importance_score, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			source_type = excluded.source_type,
			source_id = excluded.source_id,
			source_title = excluded.source_title,
			content = excluded.content,
			content_summary = excluded.content_summary,
			importance_score = excluded.importance_score,
			indexed_at = excluded.indexed_at
	`, e.ID, e.OwnerID, string(e.SourceType), e.SourceID, e.SourceTitle, e.Content,
		e.ContentSummary, e.ImportanceScore, e.IndexedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving pool entry: %w", err)
	}
	return nil
}

// ListCandidates returns an owner's entries of one type by importance then recency.
func (s *poolStore) ListCandidates(
	ctx context.Context, ownerID string, source domain.SourceType, limit int,
) ([]domain.PoolEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, owner_id, source_type, source_id, source_title, content, content_summary, importance_score, indexed_at
		FROM auto_indexed_content
		WHERE owner_id = ? AND source_type = ?
		ORDER BY importance_score DESC, indexed_at DESC, id
		LIMIT ?
	`, ownerID, string(source), limit)
	if err != nil {
		return nil, fmt.Errorf("querying pool entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.PoolEntry{}
	for rows.Next() {
		var e domain.PoolEntry
		var sourceType string
		if err := rows.Scan(&e.ID, &e.OwnerID, &sourceType, &e.SourceID, &e.SourceTitle, &e.Content,
			&e.ContentSummary, &e.ImportanceScore, &e.IndexedAt); err != nil {
			return nil, fmt.Errorf("scanning pool entry: %w", err)
		}
		e.SourceType = domain.SourceType(sourceType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ==================== Entity Store ====================

// entityStore implements driven.EntityStore.
type entityStore struct {
	store *Store
}

var _ driven.EntityStore = (*entityStore)(nil)

// SaveEntity creates or replaces an owner's entity by name.
func (s *entityStore) SaveEntity(ctx context.Context, ownerID string, entity domain.Entity) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO entities (owner_id, name, entity_type, mention_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id, name) DO UPDATE SET
			entity_type = excluded.entity_type,
			mention_count = excluded.mention_count
	`, ownerID, entity.Name, entity.Type, entity.Mentions)
	if err != nil {
		return fmt.Errorf("saving entity: %w", err)
	}
	return nil
}

// TopEntities returns an owner's entities by mention count.
func (s *entityStore) TopEntities(ctx context.Context, ownerID string, limit int) ([]domain.Entity, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT name, entity_type, mention_count FROM entities
		WHERE owner_id = ?
		ORDER BY mention_count DESC, name
		LIMIT ?
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	entities := []domain.Entity{}
	for rows.Next() {
		var e domain.Entity
		if err := rows.Scan(&e.Name, &e.Type, &e.Mentions); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// parseTime reads timestamps returned by aggregates, which lose the column type.
func parseTime(value string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999 -0700 MST",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var tagsJSON string

	if err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Title, &doc.Filename, &doc.Content, &tagsJSON,
		&doc.ChunkCount, &doc.Indexed, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}

	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
			return nil, fmt.Errorf("unmarshalling tags: %w", err)
		}
	}
	if len(doc.Tags) == 0 {
		doc.Tags = nil
	}
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]domain.Document, error) {
	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func scanChunks(rows *sql.Rows, withEmbedding bool) ([]domain.Chunk, error) {
	chunks := []domain.Chunk{}
	for rows.Next() {
		var c domain.Chunk
		dest := []any{&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.CharStart, &c.CharEnd, &c.TokenCount, &c.CreatedAt}
		var blob []byte
		if withEmbedding {
			dest = append(dest, &blob)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
