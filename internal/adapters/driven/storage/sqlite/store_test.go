package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/semdex/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	// Create a temporary directory for the test database
	tempDir, err := os.MkdirTemp("", "semdex-test-*")
	require.NoError(t, err)

	store, err := NewStore(filepath.Join(tempDir, "index.db"))
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// testDocument builds a document record for the given path.
func testDocument(path string) domain.Document {
	return domain.Document{
		Path:        path,
		Title:       "Test Document",
		ContentHash: "abc123",
		ModTime:     time.Now().UTC(),
	}
}

// testPassage builds a passage with an embedding for the given document.
func testPassage(path string, position int, embedding []float32) domain.Passage {
	return domain.Passage{
		ID:           uuid.New().String(),
		DocumentPath: path,
		Position:     position,
		Section:      fmt.Sprintf("Section %d", position),
		Preview:      fmt.Sprintf("preview text %d", position),
		Embedding:    embedding,
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "semdex-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	// Nested directories should be created on demand.
	dbPath := filepath.Join(tempDir, "deep", "nested", "index.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, dbPath, store.Path())
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestStore_UpsertAndGetDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	doc := testDocument("notes/alpha.md")
	passages := []domain.Passage{
		testPassage(doc.Path, 0, []float32{1, 0, 0}),
		testPassage(doc.Path, 1, []float32{0, 1, 0}),
	}

	err := store.UpsertDocument(ctx, doc, passages)
	require.NoError(t, err)

	retrieved, err := store.GetDocument(ctx, "notes/alpha.md")
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, doc.Path, retrieved.Path)
	assert.Equal(t, doc.Title, retrieved.Title)
	assert.Equal(t, doc.ContentHash, retrieved.ContentHash)
	assert.Equal(t, 2, retrieved.PassageCount)
	assert.WithinDuration(t, doc.ModTime, retrieved.ModTime, time.Second)
	assert.WithinDuration(t, time.Now().UTC(), retrieved.SyncedAt, 5*time.Second)
}

func TestStore_GetDocument_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetDocument(context.Background(), "missing.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpsertDocument_ReplacesPassages(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	doc := testDocument("notes/beta.md")

	first := []domain.Passage{
		testPassage(doc.Path, 0, []float32{1, 0, 0}),
		testPassage(doc.Path, 1, []float32{0, 1, 0}),
		testPassage(doc.Path, 2, []float32{0, 0, 1}),
	}
	require.NoError(t, store.UpsertDocument(ctx, doc, first))

	second := []domain.Passage{
		testPassage(doc.Path, 0, []float32{0.5, 0.5, 0}),
	}
	require.NoError(t, store.UpsertDocument(ctx, doc, second))

	passages, err := store.Passages(ctx, doc.Path)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, second[0].ID, passages[0].ID)

	retrieved, err := store.GetDocument(ctx, doc.Path)
	require.NoError(t, err)
	assert.Equal(t, 1, retrieved.PassageCount)

	// The replaced passages must not leave orphaned vectors behind.
	var vectorCount int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM passage_vectors").Scan(&vectorCount))
	assert.Equal(t, 1, vectorCount)
}

func TestStore_UpsertDocument_ZeroPassages(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	doc := testDocument("notes/empty.md")

	require.NoError(t, store.UpsertDocument(ctx, doc, nil))

	retrieved, err := store.GetDocument(ctx, doc.Path)
	require.NoError(t, err)
	assert.Equal(t, 0, retrieved.PassageCount)

	passages, err := store.Passages(ctx, doc.Path)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestStore_UpsertDocument_RejectsInvalidPassages(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	doc := testDocument("notes/bad.md")

	noEmbedding := testPassage(doc.Path, 0, nil)
	err := store.UpsertDocument(ctx, doc, []domain.Passage{noEmbedding})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	noID := testPassage(doc.Path, 0, []float32{1, 0})
	noID.ID = ""
	err = store.UpsertDocument(ctx, doc, []domain.Passage{noID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = store.UpsertDocument(ctx, domain.Document{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_RemoveDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	doc := testDocument("notes/gamma.md")
	passages := []domain.Passage{
		testPassage(doc.Path, 0, []float32{1, 0, 0}),
		testPassage(doc.Path, 1, []float32{0, 1, 0}),
	}
	require.NoError(t, store.UpsertDocument(ctx, doc, passages))

	require.NoError(t, store.RemoveDocument(ctx, doc.Path))

	_, err := store.GetDocument(ctx, doc.Path)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Cascade clears passages and vectors.
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Documents)
	assert.Equal(t, 0, stats.Passages)

	var vectorCount int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM passage_vectors").Scan(&vectorCount))
	assert.Equal(t, 0, vectorCount)

	// Removing an absent path is a no-op.
	assert.NoError(t, store.RemoveDocument(ctx, doc.Path))
	assert.NoError(t, store.RemoveDocument(ctx, "never/existed.md"))
}

func TestStore_ListDocuments(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	for _, path := range []string{"b.md", "a.md", "c/d.md"} {
		require.NoError(t, store.UpsertDocument(ctx, testDocument(path), nil))
	}

	docs, err = store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.md", docs[0].Path)
	assert.Equal(t, "b.md", docs[1].Path)
	assert.Equal(t, "c/d.md", docs[2].Path)
}

func TestStore_Passages_PositionOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	doc := testDocument("notes/ordered.md")
	passages := []domain.Passage{
		testPassage(doc.Path, 2, []float32{0, 0, 1}),
		testPassage(doc.Path, 0, []float32{1, 0, 0}),
		testPassage(doc.Path, 1, []float32{0, 1, 0}),
	}
	require.NoError(t, store.UpsertDocument(ctx, doc, passages))

	retrieved, err := store.Passages(ctx, doc.Path)
	require.NoError(t, err)
	require.Len(t, retrieved, 3)

	for i, p := range retrieved {
		assert.Equal(t, i, p.Position)
		assert.Equal(t, doc.Path, p.DocumentPath)
		assert.Nil(t, p.Embedding)
	}
}

func TestStore_Query_OrdersByDistance(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	docA := testDocument("a.md")
	docB := testDocument("b.md")
	docC := testDocument("c.md")
	require.NoError(t, store.UpsertDocument(ctx, docA, []domain.Passage{testPassage(docA.Path, 0, []float32{1, 0, 0})}))
	require.NoError(t, store.UpsertDocument(ctx, docB, []domain.Passage{testPassage(docB.Path, 0, []float32{0, 1, 0})}))
	require.NoError(t, store.UpsertDocument(ctx, docC, []domain.Passage{testPassage(docC.Path, 0, []float32{0, 0, 1})}))

	hits, err := store.Query(ctx, []float32{0.9, 0.1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "a.md", hits[0].Path)
	assert.Equal(t, "b.md", hits[1].Path)
	assert.Equal(t, "c.md", hits[2].Path)

	// Distances ascend and the best match is nearly identical.
	assert.Less(t, hits[0].Distance, hits[1].Distance)
	assert.Less(t, hits[1].Distance, hits[2].Distance)
	assert.InDelta(t, 0.0, hits[0].Distance, 0.01)

	// Hit rows carry the passage metadata needed to render a result.
	assert.Equal(t, "Test Document", hits[0].Title)
	assert.Equal(t, "Section 0", hits[0].Section)
	assert.Equal(t, "preview text 0", hits[0].Preview)
	assert.Equal(t, 0, hits[0].Position)
}

func TestStore_Query_HonoursLimit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	doc := testDocument("big.md")
	var passages []domain.Passage
	for i := 0; i < 10; i++ {
		passages = append(passages, testPassage(doc.Path, i, []float32{float32(i + 1), 1, 0}))
	}
	require.NoError(t, store.UpsertDocument(ctx, doc, passages))

	hits, err := store.Query(ctx, []float32{1, 0, 0}, 4)
	require.NoError(t, err)
	assert.Len(t, hits, 4)
}

func TestStore_Query_EmptyStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	hits, err := store.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_Query_InvalidInput(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.Query(ctx, nil, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.Query(ctx, []float32{1, 0}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Stats(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Documents)
	assert.Equal(t, 0, stats.Passages)

	docA := testDocument("a.md")
	require.NoError(t, store.UpsertDocument(ctx, docA, []domain.Passage{
		testPassage(docA.Path, 0, []float32{1, 0}),
		testPassage(docA.Path, 1, []float32{0, 1}),
	}))
	require.NoError(t, store.UpsertDocument(ctx, testDocument("b.md"), nil))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Passages)
}

func TestStore_ReopenPreservesData(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "semdex-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "index.db")
	ctx := context.Background()

	store, err := NewStore(dbPath)
	require.NoError(t, err)

	doc := testDocument("keep.md")
	require.NoError(t, store.UpsertDocument(ctx, doc, []domain.Passage{
		testPassage(doc.Path, 0, []float32{1, 0, 0}),
	}))
	require.NoError(t, store.Close())

	// Reopening runs migrations again and must not disturb existing rows.
	reopened, err := NewStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	retrieved, err := reopened.GetDocument(ctx, "keep.md")
	require.NoError(t, err)
	assert.Equal(t, 1, retrieved.PassageCount)

	hits, err := reopened.Query(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "keep.md", hits[0].Path)
}

func TestFloat32SliceRoundTrip(t *testing.T) {
	original := []float32{0.1, -2.5, 0, 1e-7, 42}
	decoded := bytesToFloat32Slice(float32SliceToBytes(original))
	assert.Equal(t, original, decoded)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
