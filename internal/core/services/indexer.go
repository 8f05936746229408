package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/semdex/internal/chunker"
	"github.com/custodia-labs/semdex/internal/core/domain"
	"github.com/custodia-labs/semdex/internal/core/ports/driven"
	"github.com/custodia-labs/semdex/internal/logger"
)

// Indexer runs the per-file pipeline: read, hash, chunk, embed, store.
// It holds no state of its own, so distinct paths may be indexed
// concurrently.
type Indexer struct {
	corpus   driven.Corpus
	store    driven.VectorStore
	embedder driven.EmbeddingService
	splitter *chunker.Splitter
}

// NewIndexer creates an indexer. The embedder may be nil, in which
// case every indexing attempt reports the index as unavailable.
func NewIndexer(
	corpus driven.Corpus,
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	splitter *chunker.Splitter,
) *Indexer {
	if splitter == nil {
		splitter = chunker.New()
	}
	return &Indexer{
		corpus:   corpus,
		store:    store,
		embedder: embedder,
		splitter: splitter,
	}
}

// Available reports whether an embedding service is wired in.
func (ix *Indexer) Available() bool {
	return ix.embedder != nil
}

// IndexFile brings one vault file's index entries up to date. A file
// missing from the corpus is deleted from the store. Content whose
// hash matches the stored record is skipped without touching the
// embedding provider.
func (ix *Indexer) IndexFile(ctx context.Context, path string) error {
	if !ix.Available() {
		return domain.ErrEmbeddingUnavailable
	}

	stat, err := ix.corpus.Stat(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		return ix.RemoveFile(ctx, path)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	content, err := ix.corpus.Read(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		return ix.RemoveFile(ctx, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	existing, err := ix.store.GetDocument(ctx, path)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get document %s: %w", path, err)
	}
	if existing != nil && existing.ContentHash == hash {
		logger.Debug("Unchanged, skipping: %s", path)
		return nil
	}

	title := chunker.Title(string(content), path)
	passages := ix.splitter.Split(path, title, string(content))

	if len(passages) > 0 {
		texts := make([]string, len(passages))
		for i, p := range passages {
			texts[i] = p.Content
		}

		embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed %s: %w", path, err)
		}
		if len(embeddings) != len(passages) {
			return fmt.Errorf("embed %s: got %d embeddings for %d passages", path, len(embeddings), len(passages))
		}
		for i := range passages {
			passages[i].Embedding = embeddings[i]
		}
	}

	doc := domain.Document{
		Path:        path,
		Title:       title,
		ContentHash: hash,
		ModTime:     stat.ModTime,
		SyncedAt:    time.Now().UTC(),
	}

	if err := ix.store.UpsertDocument(ctx, doc, passages); err != nil {
		return fmt.Errorf("store %s: %w", path, err)
	}

	logger.Debug("Indexed %s: %d passages", path, len(passages))
	return nil
}

// RemoveFile drops one file's entries from the store. Unknown paths
// are a no-op.
func (ix *Indexer) RemoveFile(ctx context.Context, path string) error {
	if err := ix.store.RemoveDocument(ctx, path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	logger.Debug("Removed from index: %s", path)
	return nil
}
