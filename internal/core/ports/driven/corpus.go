package driven

import (
	"context"
	"time"
)

// Corpus provides access to the watched folder tree of documents.
// Paths are always vault-relative with forward slashes; the corpus is
// mutated externally and may change between any two calls.
type Corpus interface {
	// List enumerates every indexable file currently in the vault.
	List(ctx context.Context) ([]CorpusFile, error)

	// Read returns the raw content of one file.
	// A file deleted since enumeration returns domain.ErrNotFound;
	// callers treat that as a deletion, not a fault.
	Read(ctx context.Context, path string) ([]byte, error)

	// Stat returns current metadata for one file.
	// Returns domain.ErrNotFound when the file is gone.
	Stat(ctx context.Context, path string) (CorpusFile, error)

	// Watch emits an event for every create, write, rename, or removal
	// under the vault root until ctx is cancelled or the corpus is
	// closed. Events are raw and unbatched; debouncing is the caller's
	// concern.
	Watch(ctx context.Context) (<-chan CorpusEvent, error)

	// Close stops watching and releases resources. Idempotent.
	Close() error
}

// CorpusFile describes one file in the vault.
type CorpusFile struct {
	// Path is the vault-relative path.
	Path string

	// ModTime is the file's last modification time.
	ModTime time.Time

	// Size is the file size in bytes.
	Size int64
}

// CorpusEventOp classifies a watch event.
type CorpusEventOp string

// Watch event operations.
const (
	// CorpusEventUpdated covers creates and writes; the caller stats
	// the path to decide what actually happened.
	CorpusEventUpdated CorpusEventOp = "updated"

	// CorpusEventRemoved covers removals and renames away.
	CorpusEventRemoved CorpusEventOp = "removed"
)

// CorpusEvent is one raw filesystem change notification.
type CorpusEvent struct {
	// Path is the vault-relative path the event concerns.
	Path string

	// Op is the change classification.
	Op CorpusEventOp
}
