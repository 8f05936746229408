package driven

import (
	"context"

	"github.com/custodia-labs/semdex/internal/core/domain"
)

// VectorStore persists documents, passages, and their embeddings, and
// answers nearest-neighbour queries. The similarity mechanism is an
// implementation detail hidden behind this interface.
//
// Implementations must keep passages and vectors consistent: a reader
// never observes a passage without its vector, or a vector whose
// passage is gone.
type VectorStore interface {
	// UpsertDocument atomically replaces a document's record and its
	// full passage set. Either every row lands or none does. Passages
	// must carry their embeddings. Zero passages is valid and records
	// an empty document.
	UpsertDocument(ctx context.Context, doc domain.Document, passages []domain.Passage) error

	// RemoveDocument deletes a document and everything hanging off it.
	// Removing an absent path is a no-op.
	RemoveDocument(ctx context.Context, path string) error

	// GetDocument retrieves a document record by path.
	// Returns domain.ErrNotFound when absent.
	GetDocument(ctx context.Context, path string) (*domain.Document, error)

	// ListDocuments returns every document record in the store.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// Passages returns a document's stored passages in position order,
	// without embeddings.
	Passages(ctx context.Context, path string) ([]domain.Passage, error)

	// Query returns the limit nearest passages to the query vector,
	// ordered by ascending distance.
	Query(ctx context.Context, vector []float32, limit int) ([]QueryHit, error)

	// Stats returns document and passage counts.
	Stats(ctx context.Context) (StoreStats, error)

	// Close releases the underlying database handle.
	Close() error
}

// QueryHit is one nearest-neighbour match.
type QueryHit struct {
	// Path is the owning document's vault-relative path.
	Path string

	// Title is the owning document's title.
	Title string

	// Section is the passage's heading label, if any.
	Section string

	// Preview is the passage's stored excerpt.
	Preview string

	// Position is the passage's ordinal within its document.
	Position int

	// Distance is the raw cosine distance; lower is closer.
	Distance float64
}

// StoreStats summarises index contents.
type StoreStats struct {
	// Documents is the number of document records.
	Documents int

	// Passages is the number of stored passages.
	Passages int
}
