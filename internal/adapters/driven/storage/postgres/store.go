// Package postgres provides a PostgreSQL implementation of the storage ports
// for multi-user deployments. Schema changes are applied with golang-migrate
// from migrations embedded in the binary.
package postgres

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/postgres/migrations"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Store provides access to all store interfaces over one connection pool.
type Store struct {
	db *sql.DB
}

// NewStore connects to dsn and applies pending migrations.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies every pending up migration.
func (s *Store) Migrate() error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// MigrateDown reverts steps migrations, or all of them when steps <= 0.
func (s *Store) MigrateDown(steps int) error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("reverting migrations: %w", err)
	}
	return nil
}

func (s *Store) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(s.db, &migratepg.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{db: s.db}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{db: s.db}
}

// CitationStore returns a CitationStore interface backed by this store.
func (s *Store) CitationStore() driven.CitationStore {
	return &citationStore{db: s.db}
}

// PoolStore returns a PoolStore interface backed by this store.
func (s *Store) PoolStore() driven.PoolStore {
	return &poolStore{db: s.db}
}

// EntityStore returns an EntityStore interface backed by this store.
func (s *Store) EntityStore() driven.EntityStore {
	return &entityStore{db: s.db}
}

// ==================== Document Store ====================

type documentStore struct {
	db *sql.DB
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, owner_id, title, filename, content, tags, chunk_count, indexed, created_at, updated_at`

func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			title = EXCLUDED.title,
			filename = EXCLUDED.filename,
			content = EXCLUDED.content,
			tags = EXCLUDED.tags,
			chunk_count = EXCLUDED.chunk_count,
			indexed = EXCLUDED.indexed,
			updated_at = EXCLUDED.updated_at
	`, doc.ID, doc.OwnerID, doc.Title, doc.Filename, doc.Content, pq.Array(tags),
		doc.ChunkCount, doc.Indexed, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

func (s *documentStore) GetDocuments(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (s *documentStore) ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE $1 = '' OR owner_id = $1
		ORDER BY created_at DESC, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (s *documentStore) UpdateIndexState(ctx context.Context, id string, chunkCount int, indexed bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET chunk_count = $1, indexed = $2, updated_at = $3 WHERE id = $4
	`, chunkCount, indexed, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating index state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document with its chunks and citations in one transaction.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{
		`DELETE FROM citations WHERE document_id = $1`,
		`DELETE FROM document_chunks WHERE document_id = $1`,
		`DELETE FROM documents WHERE id = $1`,
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

type chunkStore struct {
	db *sql.DB
}

var _ driven.ChunkStore = (*chunkStore)(nil)

const chunkColumns = `id, document_id, chunk_index, content, char_start, char_end, token_count, created_at`

func (s *chunkStore) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO document_chunks (`+chunkColumns+`, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, c := range chunks {
			if _, err := stmt.ExecContext(ctx, c.ID, documentID, c.ChunkIndex, c.Content,
				c.CharStart, c.CharEnd, c.TokenCount, c.CreatedAt, encodeVector(c.Embedding)); err != nil {
				return fmt.Errorf("saving chunk: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *chunkStore) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func (s *chunkStore) ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM document_chunks WHERE document_id = $1 ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows, false)
}

func (s *chunkStore) GetChunks(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	if len(ids) == 0 {
		return []domain.Chunk{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM document_chunks WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows, false)
}

func (s *chunkStore) ListEmbedded(ctx context.Context, documentIDs []string, limit int) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`, embedding FROM document_chunks
		WHERE embedding IS NOT NULL
			AND (cardinality($1::text[]) = 0 OR document_id = ANY($1))
		ORDER BY created_at DESC, document_id, chunk_index
		LIMIT $2
	`, pq.Array(nonNil(documentIDs)), limit)
	if err != nil {
		return nil, fmt.Errorf("querying embedded chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows, true)
}

func (s *chunkStore) SearchContent(ctx context.Context, query string, documentIDs []string, limit int) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM document_chunks
		WHERE strpos(lower(content), lower($1)) > 0
			AND (cardinality($2::text[]) = 0 OR document_id = ANY($2))
		ORDER BY created_at DESC, document_id, chunk_index
		LIMIT $3
	`, query, pq.Array(nonNil(documentIDs)), limit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows, false)
}

// ==================== Citation Store ====================

type citationStore struct {
	db *sql.DB
}

var _ driven.CitationStore = (*citationStore)(nil)

func (s *citationStore) InsertCitations(ctx context.Context, citations []domain.Citation) error {
	if len(citations) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO citations (id, session_id, message_id, document_id, chunk_id, relevance_score, context_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range citations {
		if _, err := stmt.ExecContext(ctx, c.ID, c.SessionID, c.MessageID, c.DocumentID, c.ChunkID,
			c.RelevanceScore, c.ContextUsed, c.CreatedAt); err != nil {
			return fmt.Errorf("saving citation: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *citationStore) ListSessionCitations(ctx context.Context, sessionID string) ([]domain.CitationDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.session_id, c.message_id, c.document_id, c.chunk_id,
			c.relevance_score, c.context_used, c.created_at, COALESCE(d.title, '')
		FROM citations c
		LEFT JOIN documents d ON d.id = c.document_id
		WHERE c.session_id = $1
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

func (s *citationStore) TopCitedDocuments(ctx context.Context, ownerID string, limit int) ([]domain.CitedDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.title, COUNT(c.id), AVG(c.relevance_score), MAX(c.created_at)
		FROM citations c
		JOIN documents d ON d.id = c.document_id
		WHERE $1 = '' OR d.owner_id = $1
		GROUP BY d.id, d.title
		ORDER BY COUNT(c.id) DESC, MAX(c.created_at) DESC, d.id
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying cited documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.CitedDocument{}
	for rows.Next() {
		var d domain.CitedDocument
		if err := rows.Scan(&d.DocumentID, &d.Title, &d.CitationCount, &d.AvgRelevance, &d.LastCitedAt); err != nil {
			return nil, fmt.Errorf("scanning cited document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ==================== Pool Store ====================

type poolStore struct {
	db *sql.DB
}

var _ driven.PoolStore = (*poolStore)(nil)

func (s *poolStore) SavePoolEntry(ctx context.Context, e *domain.PoolEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auto_indexed_content
			(id, owner_id, source_type, source_id, source_title, content, content_summary, importance_score, indexed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			source_type = EXCLUDED.source_type,
			source_id = EXCLUDED.source_id,
			source_title = EXCLUDED.source_title,
			content = EXCLUDED.content,
			content_summary = EXCLUDED.content_summary,
			importance_score = EXCLUDED.importance_score,
			indexed_at = EXCLUDED.indexed_at
	`, e.ID, e.OwnerID, string(e.SourceType), e.SourceID, e.SourceTitle, e.Content,
		e.ContentSummary, e.ImportanceScore, e.IndexedAt)
	if err != nil {
		return fmt.Errorf("saving pool entry: %w", err)
	}
	return nil
}

func (s *poolStore) ListCandidates(
	ctx context.Context, ownerID string, source domain.SourceType, limit int,
) ([]domain.PoolEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, source_type, source_id, source_title, content, content_summary, importance_score, indexed_at
		FROM auto_indexed_content
		WHERE owner_id = $1 AND source_type = $2
		ORDER BY importance_score DESC, indexed_at DESC, id
		LIMIT $3
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

type entityStore struct {
	db *sql.DB
}

var _ driven.EntityStore = (*entityStore)(nil)

func (s *entityStore) SaveEntity(ctx context.Context, ownerID string, entity domain.Entity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (owner_id, name, entity_type, mention_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, name) DO UPDATE SET
			entity_type = EXCLUDED.entity_type,
			mention_count = EXCLUDED.mention_count
	`, ownerID, entity.Name, entity.Type, entity.Mentions)
	if err != nil {
		return fmt.Errorf("saving entity: %w", err)
	}
	return nil
}

func (s *entityStore) TopEntities(ctx context.Context, ownerID string, limit int) ([]domain.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, entity_type, mention_count FROM entities
		WHERE owner_id = $1
		ORDER BY mention_count DESC, name
		LIMIT $2
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

type rowScanner interface {
	Scan(dest ...any) error
}

// encodeVector stores float32 values little-endian, four bytes each.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var tags pq.StringArray
	if err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Title, &doc.Filename, &doc.Content, &tags,
		&doc.ChunkCount, &doc.Indexed, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		doc.Tags = []string(tags)
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
		c.Embedding = decodeVector(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
