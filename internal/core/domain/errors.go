package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured.
	// The index cannot answer semantic queries or ingest documents without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the embedding provider rejected a request
	// with a rate-limit response after all retries were exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrSyncInProgress indicates the coordinator is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrCorpusClosed indicates the corpus watcher has been closed.
	ErrCorpusClosed = errors.New("corpus closed")
)
