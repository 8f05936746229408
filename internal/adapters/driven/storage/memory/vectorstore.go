package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/semdex/internal/core/domain"
	"github.com/custodia-labs/semdex/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Queries run a linear cosine scan over every stored passage. Nothing
// persists across restarts, which suits tests and throwaway indexes.
type VectorStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	passages  map[string][]domain.Passage
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		documents: make(map[string]domain.Document),
		passages:  make(map[string][]domain.Passage),
	}
}

// UpsertDocument replaces a document record and its full passage set.
func (s *VectorStore) UpsertDocument(_ context.Context, doc domain.Document, passages []domain.Passage) error {
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
	doc.PassageCount = len(passages)

	copied := make([]domain.Passage, len(passages))
	copy(copied, passages)
	sort.Slice(copied, func(i, j int) bool {
		return copied[i].Position < copied[j].Position
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.Path] = doc
	s.passages[doc.Path] = copied
	return nil
}

// RemoveDocument deletes a document and its passages. Unknown paths
// are a no-op.
func (s *VectorStore) RemoveDocument(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, path)
	delete(s.passages, path)
	return nil
}

// GetDocument retrieves a document record by path.
func (s *VectorStore) GetDocument(_ context.Context, path string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns every document record, ordered by path.
func (s *VectorStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Path < docs[j].Path
	})
	return docs, nil
}

// Passages returns a document's passages in position order, without
// embeddings.
func (s *VectorStore) Passages(_ context.Context, path string) ([]domain.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.passages[path]
	passages := make([]domain.Passage, len(stored))
	for i, p := range stored {
		p.Embedding = nil
		passages[i] = p
	}
	return passages, nil
}

// Query scans every stored passage and returns the limit nearest by
// cosine distance, ascending.
func (s *VectorStore) Query(_ context.Context, vector []float32, limit int) ([]driven.QueryHit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty: %w", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive: %w", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.QueryHit
	for path, passages := range s.passages {
		doc := s.documents[path]
		for _, p := range passages {
			distance, err := cosineDistance(vector, p.Embedding)
			if err != nil {
				return nil, err
			}
			hits = append(hits, driven.QueryHit{
				Path:     path,
				Title:    doc.Title,
				Section:  p.Section,
				Preview:  p.Preview,
				Position: p.Position,
				Distance: distance,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Stats returns document and passage counts.
func (s *VectorStore) Stats(_ context.Context) (driven.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := driven.StoreStats{Documents: len(s.documents)}
	for _, passages := range s.passages {
		stats.Passages += len(passages)
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (s *VectorStore) Close() error {
	return nil
}

// cosineDistance computes one minus cosine similarity. Zero-magnitude
// vectors compare at distance 1.
func cosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch %d vs %d", len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2)), nil
}
