package mcp

import (
	"context"

	"github.com/custodia-labs/semdex/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	results   []domain.SearchResult
	progress  domain.SyncProgress
	rendered  string
	available bool
	err       error
}

func (m *mockQueryService) Search(
	_ context.Context,
	_ string,
	_ domain.SearchOptions,
) (string, error) {
	return m.rendered, m.err
}

func (m *mockQueryService) SearchRaw(
	_ context.Context,
	_ string,
	_ domain.SearchOptions,
) ([]domain.SearchResult, domain.SyncProgress, error) {
	return m.results, m.progress, m.err
}

func (m *mockQueryService) Available() bool {
	return m.available
}

// mockSyncService is a mock implementation of driving.SyncService.
type mockSyncService struct {
	progress      domain.SyncProgress
	err           error
	reindexedPath string
	removedPath   string
}

func (m *mockSyncService) Start(_ context.Context) error {
	return m.err
}

func (m *mockSyncService) WaitReconcile(_ context.Context) error {
	return m.err
}

func (m *mockSyncService) ReindexFile(_ context.Context, path string) error {
	m.reindexedPath = path
	return m.err
}

func (m *mockSyncService) RemoveFile(_ context.Context, path string) error {
	m.removedPath = path
	return m.err
}

func (m *mockSyncService) Progress() domain.SyncProgress {
	return m.progress
}

func (m *mockSyncService) Close() error {
	return nil
}
