package driving

import (
	"context"

	"github.com/custodia-labs/semdex/internal/core/domain"
)

// SyncService keeps the index synchronised with the vault.
type SyncService interface {
	// Start launches the startup reconciliation in the background and
	// begins watching the vault. It returns once both are underway;
	// queries may be served immediately.
	Start(ctx context.Context) error

	// WaitReconcile blocks until the startup reconciliation finishes
	// or ctx is cancelled, and returns the reconciliation's error.
	WaitReconcile(ctx context.Context) error

	// ReindexFile re-chunks, re-embeds, and re-stores one file now,
	// bypassing the debounce. Unchanged content is a no-op.
	ReindexFile(ctx context.Context, path string) error

	// RemoveFile deletes one file's entries from the index.
	// Removing an unindexed path is a no-op.
	RemoveFile(ctx context.Context, path string) error

	// Progress reports the reconciliation state and counters.
	Progress() domain.SyncProgress

	// Close stops the watch loop, cancels pending debounce timers, and
	// waits for background work to settle.
	Close() error
}
