package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/semdex/internal/core/domain"
	"github.com/custodia-labs/semdex/internal/core/ports/driven"
	"github.com/custodia-labs/semdex/internal/core/ports/driving"
	"github.com/custodia-labs/semdex/internal/logger"
)

// Ensure SyncCoordinator implements the interface.
var _ driving.SyncService = (*SyncCoordinator)(nil)

// reconcileBatchSize bounds how many files the startup pass indexes
// concurrently. Embedding requests dominate the cost, so a small wave
// keeps provider load predictable.
const reconcileBatchSize = 8

// SyncCoordinator keeps the vector store synchronised with the vault.
// Start launches a background reconciliation pass and a filesystem
// watch loop; change events are debounced per path so editors that
// write in bursts trigger one reindex, not many.
type SyncCoordinator struct {
	corpus   driven.Corpus
	store    driven.VectorStore
	indexer  *Indexer
	debounce time.Duration

	mu          sync.Mutex
	started     bool
	closed      bool
	reconciling bool
	total       int
	completed   int
	timers      map[string]*time.Timer
	pending     map[string]struct{}

	reconcileErr  error
	reconcileDone chan struct{}

	runCtx context.Context
	cancel context.CancelFunc

	// wg tracks the watch loop and the reconciliation pass; inflight
	// tracks debounced index jobs, including timers not yet fired.
	wg       sync.WaitGroup
	inflight sync.WaitGroup
}

// NewSyncCoordinator creates a sync coordinator. A non-positive
// debounce falls back to the default.
func NewSyncCoordinator(
	corpus driven.Corpus,
	store driven.VectorStore,
	indexer *Indexer,
	debounce time.Duration,
) *SyncCoordinator {
	if debounce <= 0 {
		debounce = domain.DefaultAppSettings().Index.Debounce
	}
	return &SyncCoordinator{
		corpus:        corpus,
		store:         store,
		indexer:       indexer,
		debounce:      debounce,
		timers:        make(map[string]*time.Timer),
		pending:       make(map[string]struct{}),
		reconcileDone: make(chan struct{}),
	}
}

// Start begins watching the vault and launches the reconciliation pass
// in the background. It returns once both are underway; callers that
// need the index fully settled follow up with WaitReconcile.
func (c *SyncCoordinator) Start(ctx context.Context) error {
	if !c.indexer.Available() {
		return domain.ErrEmbeddingUnavailable
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrCorpusClosed
	}
	if c.started {
		c.mu.Unlock()
		return domain.ErrSyncInProgress
	}
	c.started = true
	c.reconciling = true
	c.runCtx, c.cancel = context.WithCancel(ctx)
	runCtx := c.runCtx
	c.mu.Unlock()

	// The watch starts before the vault listing so changes made during
	// reconciliation are never missed; they queue until the pass ends.
	events, err := c.corpus.Watch(runCtx)
	if err != nil {
		c.mu.Lock()
		c.started = false
		c.reconciling = false
		c.mu.Unlock()
		c.cancel()
		return fmt.Errorf("watch vault: %w", err)
	}

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.watchLoop(runCtx, events)
	}()
	go func() {
		defer c.wg.Done()
		err := c.reconcile(runCtx)

		c.mu.Lock()
		c.reconcileErr = err
		c.reconciling = false
		for path := range c.pending {
			c.scheduleLocked(path)
		}
		c.pending = make(map[string]struct{})
		c.mu.Unlock()
		close(c.reconcileDone)

		if err != nil {
			logger.Warn("Reconciliation failed: %v", err)
		}
	}()

	return nil
}

// WaitReconcile blocks until the startup reconciliation completes or
// ctx is cancelled.
func (c *SyncCoordinator) WaitReconcile(ctx context.Context) error {
	select {
	case <-c.reconcileDone:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.reconcileErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReindexFile indexes one file immediately, bypassing the debounce.
// Any timer pending for the path is cancelled so the explicit pass is
// the one that lands.
func (c *SyncCoordinator) ReindexFile(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}
	c.cancelTimer(path)
	return c.indexer.IndexFile(ctx, path)
}

// RemoveFile deletes one file's entries from the index immediately.
func (c *SyncCoordinator) RemoveFile(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}
	c.cancelTimer(path)
	return c.indexer.RemoveFile(ctx, path)
}

// Progress reports the reconciliation state and counters.
func (c *SyncCoordinator) Progress() domain.SyncProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.SyncProgress{
		Reconciling:    c.reconciling,
		TotalFiles:     c.total,
		CompletedFiles: c.completed,
	}
}

// Close stops the watch loop, cancels pending debounce timers, waits
// for in-flight index jobs, and closes the corpus. Idempotent.
func (c *SyncCoordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for path, t := range c.timers {
		if t.Stop() {
			c.inflight.Done()
		}
		delete(c.timers, path)
	}
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.inflight.Wait()
	return c.corpus.Close()
}

// reconcile walks the vault once and brings the store in line with it:
// stale store entries are removed, then every vault file is indexed in
// bounded concurrent waves. One file failing never aborts the pass.
func (c *SyncCoordinator) reconcile(ctx context.Context) error {
	logger.Debug("Reconciliation starting")

	// 1. Enumerate both sides
	files, err := c.corpus.List(ctx)
	if err != nil {
		return fmt.Errorf("list vault: %w", err)
	}
	stored, err := c.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	// 2. Find store entries whose file is gone
	inVault := make(map[string]struct{}, len(files))
	for _, f := range files {
		inVault[f.Path] = struct{}{}
	}
	//nolint:prealloc // usually empty
	var stale []string
	for _, doc := range stored {
		if _, ok := inVault[doc.Path]; !ok {
			stale = append(stale, doc.Path)
		}
	}

	c.mu.Lock()
	c.total = len(files) + len(stale)
	c.completed = 0
	c.mu.Unlock()

	// 3. Drop the stale entries first; removals are cheap
	for _, path := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.indexer.RemoveFile(ctx, path); err != nil {
			logger.Warn("Remove %s failed: %v", path, err)
		}
		c.mu.Lock()
		c.completed++
		c.mu.Unlock()
	}

	// 4. Index vault files in waves
	for start := 0; start < len(files); start += reconcileBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + reconcileBatchSize
		if end > len(files) {
			end = len(files)
		}

		var wave sync.WaitGroup
		for _, f := range files[start:end] {
			wave.Add(1)
			go func(path string) {
				defer wave.Done()
				if err := c.indexer.IndexFile(ctx, path); err != nil {
					logger.Warn("Sync %s failed: %v", path, err)
				}
				c.mu.Lock()
				c.completed++
				c.mu.Unlock()
			}(f.Path)
		}
		wave.Wait()
	}

	logger.Debug("Reconciliation finished: %d files, %d stale entries removed", len(files), len(stale))
	return nil
}

// watchLoop feeds filesystem events into the debounce machinery until
// the context is cancelled or the corpus closes the channel.
func (c *SyncCoordinator) watchLoop(ctx context.Context, events <-chan driven.CorpusEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.mu.Lock()
			switch {
			case c.closed:
				c.mu.Unlock()
				return
			case c.reconciling:
				// Queued events replay through the debounce once the
				// startup pass ends; the indexer stats each path, so
				// update and remove collapse into one operation.
				c.pending[ev.Path] = struct{}{}
			default:
				c.scheduleLocked(ev.Path)
			}
			c.mu.Unlock()
		}
	}
}

// scheduleLocked arms (or re-arms) the debounce timer for a path.
// Callers hold c.mu. Each armed timer owns one inflight count, handed
// to whichever side retires it: the canceller on a successful Stop, or
// the fired callback.
func (c *SyncCoordinator) scheduleLocked(path string) {
	if c.closed {
		return
	}
	if t, ok := c.timers[path]; ok {
		if t.Stop() {
			c.inflight.Done()
		}
	}

	c.inflight.Add(1)
	var t *time.Timer
	t = time.AfterFunc(c.debounce, func() {
		defer c.inflight.Done()

		c.mu.Lock()
		if c.closed || c.timers[path] != t {
			// Superseded by a newer event or shut down.
			c.mu.Unlock()
			return
		}
		delete(c.timers, path)
		ctx := c.runCtx
		c.mu.Unlock()

		if err := c.indexer.IndexFile(ctx, path); err != nil {
			logger.Warn("Index %s failed: %v", path, err)
		}
	})
	c.timers[path] = t
}

// cancelTimer drops any pending debounce timer for a path.
func (c *SyncCoordinator) cancelTimer(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[path]; ok {
		if t.Stop() {
			c.inflight.Done()
		}
		delete(c.timers, path)
	}
}
