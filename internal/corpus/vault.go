// Package corpus provides access to the vault: the externally-mutated
// folder tree of documents the index mirrors. It enumerates and reads
// files and watches the tree for changes via fsnotify.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/semdex/internal/core/domain"
	"github.com/custodia-labs/semdex/internal/core/ports/driven"
	"github.com/custodia-labs/semdex/internal/logger"
)

// Ensure Vault implements the interface.
var _ driven.Corpus = (*Vault)(nil)

// indexableExts are the file extensions the index accepts.
var indexableExts = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".txt":      {},
}

// Vault is a filesystem-backed corpus rooted at one directory.
// Hidden files and folders are always skipped; additional folder names
// can be excluded with WithIgnoreFolders.
type Vault struct {
	root   string
	ignore map[string]struct{}

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// Option configures the vault.
type Option func(*Vault)

// WithIgnoreFolders excludes folders by name anywhere in the tree.
func WithIgnoreFolders(names ...string) Option {
	return func(v *Vault) {
		for _, name := range names {
			if name != "" {
				v.ignore[name] = struct{}{}
			}
		}
	}
}

// New creates a vault over the given root directory.
func New(root string, opts ...Option) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving vault root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("vault root does not exist: %s", abs)
		}
		return nil, fmt.Errorf("checking vault root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault root is not a directory: %s", abs)
	}

	v := &Vault{
		root:   abs,
		ignore: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Root returns the absolute vault root path.
func (v *Vault) Root() string {
	return v.root
}

// List enumerates every indexable file currently in the vault.
func (v *Vault) List(ctx context.Context) ([]driven.CorpusFile, error) {
	var files []driven.CorpusFile

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if d.IsDir() {
			if path != v.root && v.skipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !indexable(name) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// File vanished mid-walk; a deletion, not a fault.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		files = append(files, driven.CorpusFile{
			Path:    filepath.ToSlash(rel),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing vault: %w", err)
	}
	return files, nil
}

// Read returns the raw content of one vault file.
func (v *Vault) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := v.join(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return content, nil
}

// Stat returns current metadata for one vault file.
func (v *Vault) Stat(ctx context.Context, path string) (driven.CorpusFile, error) {
	if err := ctx.Err(); err != nil {
		return driven.CorpusFile{}, err
	}
	full, err := v.join(path)
	if err != nil {
		return driven.CorpusFile{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return driven.CorpusFile{}, fmt.Errorf("stat %s: %w", path, domain.ErrNotFound)
		}
		return driven.CorpusFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return driven.CorpusFile{
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// Watch emits raw change events for indexable files until ctx is
// cancelled or the vault is closed. fsnotify watches are per-directory,
// so every subdirectory is registered up front and directories created
// later are added as their create events arrive.
func (v *Vault) Watch(ctx context.Context) (<-chan driven.CorpusEvent, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, domain.ErrCorpusClosed
	}
	if v.watcher != nil {
		return nil, fmt.Errorf("vault already being watched")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	v.watcher = watcher

	events := make(chan driven.CorpusEvent, 64)
	if err := v.addDirWatches(watcher, v.root, nil); err != nil {
		watcher.Close() //nolint:errcheck
		v.watcher = nil
		return nil, err
	}

	go v.watchLoop(ctx, watcher, events)
	return events, nil
}

func (v *Vault) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- driven.CorpusEvent) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			v.handleEvent(ctx, watcher, ev, out)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("vault watcher: %v", err)
		}
	}
}

func (v *Vault) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, ev fsnotify.Event, out chan<- driven.CorpusEvent) {
	rel, err := filepath.Rel(v.root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(ev.Name)

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if v.skipDir(base) {
				return
			}
			// A directory moved in wholesale carries files no event
			// will ever fire for; surface them while registering the
			// new watches.
			var found []string
			if err := v.addDirWatches(watcher, ev.Name, &found); err != nil {
				logger.Warn("vault watcher: %v", err)
			}
			for _, p := range found {
				v.emit(ctx, out, driven.CorpusEvent{Path: p, Op: driven.CorpusEventUpdated})
			}
			return
		}
	}

	if strings.HasPrefix(base, ".") || !indexable(base) {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		v.emit(ctx, out, driven.CorpusEvent{Path: rel, Op: driven.CorpusEventUpdated})
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		v.emit(ctx, out, driven.CorpusEvent{Path: rel, Op: driven.CorpusEventRemoved})
	}
}

func (v *Vault) emit(ctx context.Context, out chan<- driven.CorpusEvent, ev driven.CorpusEvent) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

// addDirWatches registers dir and every non-ignored subdirectory.
// When found is non-nil it also collects indexable files seen on the
// way, as vault-relative paths.
func (v *Vault) addDirWatches(watcher *fsnotify.Watcher, dir string, found *[]string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != v.root && v.skipDir(name) {
				return filepath.SkipDir
			}
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			return nil
		}
		if found != nil && !strings.HasPrefix(name, ".") && indexable(name) {
			if rel, relErr := filepath.Rel(v.root, path); relErr == nil {
				*found = append(*found, filepath.ToSlash(rel))
			}
		}
		return nil
	})
}

// Close stops watching and releases resources. Idempotent.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true

	if v.watcher != nil {
		err := v.watcher.Close()
		v.watcher = nil
		return err
	}
	return nil
}

func (v *Vault) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ignored := v.ignore[name]
	return ignored
}

// join resolves a vault-relative path, rejecting escapes.
func (v *Vault) join(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return "", fmt.Errorf("path %q: %w", path, domain.ErrInvalidInput)
	}
	full := filepath.Join(v.root, filepath.FromSlash(path))
	if rel, err := filepath.Rel(v.root, full); err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q: %w", path, domain.ErrInvalidInput)
	}
	return full, nil
}

func indexable(name string) bool {
	_, ok := indexableExts[strings.ToLower(filepath.Ext(name))]
	return ok
}
