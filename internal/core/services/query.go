package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/semdex/internal/core/domain"
	"github.com/custodia-labs/semdex/internal/core/ports/driven"
	"github.com/custodia-labs/semdex/internal/core/ports/driving"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

const (
	// defaultSearchLimit applies when the caller does not set one.
	defaultSearchLimit = 10

	// fetchMultiplier over-fetches nearest neighbours so filtering and
	// per-document deduplication still leave enough results.
	fetchMultiplier = 3

	// maxFetchLimit caps the over-fetch regardless of the requested limit.
	maxFetchLimit = 100
)

// QueryService answers similarity queries against the vector store.
type QueryService struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	progress func() domain.SyncProgress
}

// NewQueryService creates a query service. The embedder may be nil,
// which marks the index unavailable. The progress function reports the
// sync coordinator's reconciliation state; nil means never syncing.
func NewQueryService(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	progress func() domain.SyncProgress,
) *QueryService {
	return &QueryService{
		store:    store,
		embedder: embedder,
		progress: progress,
	}
}

// Available reports whether the embedding provider is configured.
func (s *QueryService) Available() bool {
	return s.embedder != nil
}

// SearchRaw embeds the query, over-fetches nearest passages, applies
// the option filters, and keeps each document's best passage. Results
// come back ordered by descending score.
func (s *QueryService) SearchRaw(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, domain.SyncProgress, error) {
	progress := s.syncProgress()

	if !s.Available() {
		return nil, progress, domain.ErrEmbeddingUnavailable
	}
	if strings.TrimSpace(query) == "" {
		return nil, progress, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	fetch := limit * fetchMultiplier
	if fetch > maxFetchLimit {
		fetch = maxFetchLimit
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, progress, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.Query(ctx, vector, fetch)
	if err != nil {
		return nil, progress, fmt.Errorf("query index: %w", err)
	}

	folder := strings.TrimSuffix(opts.Folder, "/")
	excluded := make(map[string]struct{}, len(opts.ExcludePaths))
	for _, p := range opts.ExcludePaths {
		excluded[p] = struct{}{}
	}

	// Hits arrive in ascending distance order, so the first passage
	// seen for a document is its best one.
	seen := make(map[string]struct{}, limit)
	results := make([]domain.SearchResult, 0, limit)
	for _, hit := range hits {
		if folder != "" && !strings.HasPrefix(hit.Path, folder+"/") {
			continue
		}
		if _, ok := excluded[hit.Path]; ok {
			continue
		}
		score := 1.0 - hit.Distance
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		if score < opts.MinScore {
			continue
		}
		if _, ok := seen[hit.Path]; ok {
			continue
		}
		seen[hit.Path] = struct{}{}

		results = append(results, domain.SearchResult{
			Path:     hit.Path,
			Title:    hit.Title,
			Section:  hit.Section,
			Preview:  hit.Preview,
			Position: hit.Position,
			Score:    score,
		})
		if len(results) == limit {
			break
		}
	}

	return results, progress, nil
}

// Search runs SearchRaw and renders the hits as numbered plain text,
// appending a note when the index is still synchronising.
func (s *QueryService) Search(ctx context.Context, query string, opts domain.SearchOptions) (string, error) {
	results, progress, err := s.SearchRaw(ctx, query, opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if len(results) == 0 {
		fmt.Fprintf(&b, "No results for %q.\n", query)
	} else {
		label := "results"
		if len(results) == 1 {
			label = "result"
		}
		fmt.Fprintf(&b, "Found %d %s for %q:\n", len(results), label, query)
		for i, r := range results {
			fmt.Fprintf(&b, "\n%d. %s (score %.2f)\n", i+1, r.Path, r.Score)
			if r.Title != "" {
				fmt.Fprintf(&b, "   Title: %s\n", r.Title)
			}
			if r.Section != "" {
				fmt.Fprintf(&b, "   Section: %s\n", r.Section)
			}
			if r.Preview != "" {
				fmt.Fprintf(&b, "   %s\n", r.Preview)
			}
		}
	}

	if note := progress.Note(); note != "" {
		fmt.Fprintf(&b, "\n%s\n", note)
	}
	return b.String(), nil
}

// syncProgress snapshots the coordinator's state, or a settled zero
// value when no coordinator is wired in.
func (s *QueryService) syncProgress() domain.SyncProgress {
	if s.progress == nil {
		return domain.SyncProgress{}
	}
	return s.progress()
}
