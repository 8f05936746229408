package driving

import (
	"context"

	"github.com/custodia-labs/semdex/internal/core/domain"
)

// QueryService answers similarity queries against the index.
type QueryService interface {
	// Search runs a query and renders the results as human-readable
	// text, including a note when the index is still synchronising.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (string, error)

	// SearchRaw runs a query and returns structured results plus the
	// sync progress observed while answering.
	SearchRaw(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, domain.SyncProgress, error)

	// Available reports whether the embedding provider is configured.
	// When false, Search and SearchRaw fail with
	// domain.ErrEmbeddingUnavailable.
	Available() bool
}
