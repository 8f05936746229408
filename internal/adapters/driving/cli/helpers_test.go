package cli

import (
	"context"

	"github.com/custodia-labs/semdex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/semdex/internal/core/domain"
	"github.com/custodia-labs/semdex/internal/core/services"
)

// stubQueryService implements driving.QueryService for command tests.
type stubQueryService struct {
	rendered  string
	results   []domain.SearchResult
	progress  domain.SyncProgress
	available bool
	err       error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (s *stubQueryService) Search(_ context.Context, query string, opts domain.SearchOptions) (string, error) {
	s.lastQuery = query
	s.lastOpts = opts
	return s.rendered, s.err
}

func (s *stubQueryService) SearchRaw(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, domain.SyncProgress, error) {
	s.lastQuery = query
	s.lastOpts = opts
	return s.results, s.progress, s.err
}

func (s *stubQueryService) Available() bool {
	return s.available
}

// stubSyncService implements driving.SyncService for command tests.
type stubSyncService struct {
	progress      domain.SyncProgress
	startErr      error
	reconcileErr  error
	reindexErr    error
	removeErr     error
	reindexedPath string
	removedPath   string
}

func (s *stubSyncService) Start(_ context.Context) error {
	return s.startErr
}

func (s *stubSyncService) WaitReconcile(_ context.Context) error {
	return s.reconcileErr
}

func (s *stubSyncService) ReindexFile(_ context.Context, path string) error {
	s.reindexedPath = path
	return s.reindexErr
}

func (s *stubSyncService) RemoveFile(_ context.Context, path string) error {
	s.removedPath = path
	return s.removeErr
}

func (s *stubSyncService) Progress() domain.SyncProgress {
	return s.progress
}

func (s *stubSyncService) Close() error {
	return nil
}

// setupTestServices swaps the wired services for in-memory stubs and
// returns a cleanup that restores the previous wiring.
func setupTestServices() (*stubQueryService, *stubSyncService, func()) {
	prevSettings := settingsService
	prevSync := syncService
	prevQuery := queryService
	prevStore := vectorStore
	prevEmbedder := embedder
	prevWired := servicesWired

	query := &stubQueryService{
		rendered:  "Found 1 result for \"test query\":\n\n1. notes/a.md (score 0.92)\n",
		available: true,
		results: []domain.SearchResult{
			{Path: "notes/a.md", Title: "A", Score: 0.92},
		},
	}
	sync := &stubSyncService{
		progress: domain.SyncProgress{TotalFiles: 3, CompletedFiles: 3},
	}

	settingsService = services.NewSettingsService(memory.NewConfigStore())
	queryService = query
	syncService = sync
	vectorStore = memory.NewVectorStore()
	embedder = nil
	servicesWired = true

	return query, sync, func() {
		settingsService = prevSettings
		syncService = prevSync
		queryService = prevQuery
		vectorStore = prevStore
		embedder = prevEmbedder
		servicesWired = prevWired
	}
}
