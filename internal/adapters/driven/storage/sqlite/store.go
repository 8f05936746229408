package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/semdex/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/semdex/internal/core/domain"
	"github.com/custodia-labs/semdex/internal/core/ports/driven"
)

// Store is a SQLite-backed vector store holding document records,
// passage metadata, and passage embeddings. Nearest-neighbour queries
// run inside SQLite through a registered cosine distance function, so
// vectors never leave the database during a search.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.VectorStore = (*Store)(nil)

// NewStore opens (or creates) the index database at dbPath.
// If dbPath is empty, defaults to ~/.semdex/index.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".semdex", "index.db")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// The distance function must be registered before the first
	// connection opens.
	registerVectorFunctions()

	// WAL for concurrency, foreign keys per connection so the
	// passage and vector cascades hold on every pooled connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
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

// migrate runs all pending migrations.
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

	// Sort and run migrations
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

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// UpsertDocument replaces a document's record and its entire passage
// set in a single transaction. Vectors land in the same commit, so a
// reader never observes a passage without its embedding. An empty
// passage slice records the document with nothing searchable.
func (s *Store) UpsertDocument(ctx context.Context, doc domain.Document, passages []domain.Passage) error {
	if doc.Path == "" {
		return fmt.Errorf("document path is empty: %w", domain.ErrInvalidInput)
	}
	for _, p := range passages {
		if p.ID == "" {
			return fmt.Errorf("passage %d of %s has no ID: %w", p.Position, doc.Path, domain.ErrInvalidInput)
		}
		if len(p.Embedding) == 0 {
			return fmt.Errorf("passage %d of %s has no embedding: %w", p.Position, doc.Path, domain.ErrInvalidInput)
		}
	}

	if doc.SyncedAt.IsZero() {
		doc.SyncedAt = time.Now().UTC()
	}
	// The stored count always reflects the stored set.
	doc.PassageCount = len(passages)

	var mtimeNS int64
	if !doc.ModTime.IsZero() {
		mtimeNS = doc.ModTime.UnixNano()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (path, title, content_hash, mtime_ns, passage_count, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			content_hash = excluded.content_hash,
			mtime_ns = excluded.mtime_ns,
			passage_count = excluded.passage_count,
			synced_at = excluded.synced_at
	`, doc.Path, doc.Title, doc.ContentHash, mtimeNS, doc.PassageCount, doc.SyncedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	// Clearing passages cascades into passage_vectors.
	if _, err := tx.ExecContext(ctx, "DELETE FROM passages WHERE document_path = ?", doc.Path); err != nil {
		return fmt.Errorf("clearing passages: %w", err)
	}

	if len(passages) > 0 {
		pstmt, err := tx.PrepareContext(ctx, `
			INSERT INTO passages (id, document_path, position, section, preview)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing passage statement: %w", err)
		}
		defer pstmt.Close()

		vstmt, err := tx.PrepareContext(ctx, `
			INSERT INTO passage_vectors (passage_id, embedding)
			VALUES (?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing vector statement: %w", err)
		}
		defer vstmt.Close()

		for _, p := range passages {
			if _, err := pstmt.ExecContext(ctx, p.ID, doc.Path, p.Position, p.Section, p.Preview); err != nil {
				return fmt.Errorf("saving passage %d: %w", p.Position, err)
			}
			if _, err := vstmt.ExecContext(ctx, p.ID, float32SliceToBytes(p.Embedding)); err != nil {
				return fmt.Errorf("saving vector %d: %w", p.Position, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// RemoveDocument deletes a document; the cascade clears its passages
// and vectors. Removing an unknown path is a no-op.
func (s *Store) RemoveDocument(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("removing document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document record by path.
func (s *Store) GetDocument(ctx context.Context, path string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, title, content_hash, mtime_ns, passage_count, synced_at
		FROM documents WHERE path = ?
	`, path)

	return scanDocument(row)
}

// ListDocuments returns every document record in the store.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, title, content_hash, mtime_ns, passage_count, synced_at
		FROM documents ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Passages returns a document's stored passages in position order.
// Embeddings are not loaded.
func (s *Store) Passages(ctx context.Context, path string) ([]domain.Passage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_path, position, section, preview
		FROM passages WHERE document_path = ?
		ORDER BY position
	`, path)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	var passages []domain.Passage //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Passage
		if err := rows.Scan(&p.ID, &p.DocumentPath, &p.Position, &p.Section, &p.Preview); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		passages = append(passages, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passages: %w", err)
	}

	return passages, nil
}

// Query returns the limit nearest passages to the query vector by
// cosine distance, ascending. The scan covers every stored vector.
func (s *Store) Query(ctx context.Context, vector []float32, limit int) ([]driven.QueryHit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty: %w", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive: %w", domain.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.path, d.title, p.section, p.preview, p.position,
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM passage_vectors v
		JOIN passages p ON p.id = v.passage_id
		JOIN documents d ON d.path = p.document_path
		ORDER BY distance
		LIMIT ?
	`, float32SliceToBytes(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.QueryHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.QueryHit
		if err := rows.Scan(&hit.Path, &hit.Title, &hit.Section, &hit.Preview, &hit.Position, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	return hits, nil
}

// Stats returns document and passage counts.
func (s *Store) Stats(ctx context.Context) (driven.StoreStats, error) {
	var stats driven.StoreStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM passages)
	`).Scan(&stats.Documents, &stats.Passages)
	if err != nil {
		return driven.StoreStats{}, fmt.Errorf("counting rows: %w", err)
	}
	return stats, nil
}

// ==================== Helper Functions ====================

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

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var mtimeNS int64
	var syncedAt sql.NullTime

	if err := row.Scan(&doc.Path, &doc.Title, &doc.ContentHash, &mtimeNS,
		&doc.PassageCount, &syncedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if mtimeNS != 0 {
		doc.ModTime = time.Unix(0, mtimeNS).UTC()
	}
	if syncedAt.Valid {
		doc.SyncedAt = syncedAt.Time
	}

	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var mtimeNS int64
	var syncedAt sql.NullTime

	if err := rows.Scan(&doc.Path, &doc.Title, &doc.ContentHash, &mtimeNS,
		&doc.PassageCount, &syncedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if mtimeNS != 0 {
		doc.ModTime = time.Unix(0, mtimeNS).UTC()
	}
	if syncedAt.Valid {
		doc.SyncedAt = syncedAt.Time
	}

	return &doc, nil
}
