package domain

import "time"

// Document represents one indexed file from the vault.
// It is keyed by the file's vault-relative path.
type Document struct {
	// Path is the vault-relative path, unique per vault.
	Path string

	// Title is the human-readable title derived from the content
	// (first level-one heading) or the filename.
	Title string

	// ContentHash is the hex-encoded SHA-256 of the raw file content
	// at the last successful sync.
	ContentHash string

	// ModTime is the file's modification time at the last successful sync.
	ModTime time.Time

	// PassageCount is the number of passages currently stored for this file.
	PassageCount int

	// SyncedAt is when the document was last successfully indexed.
	SyncedAt time.Time
}

// Passage is a contiguous bounded-size slice of one document.
// Passages are the unit of embedding and of search results; they are
// replaced as a whole set whenever their document changes.
type Passage struct {
	// ID is the opaque unique identifier for the passage.
	ID string

	// DocumentPath links to the owning Document.
	DocumentPath string

	// Position is the zero-based ordinal within the document.
	// (DocumentPath, Position) is unique.
	Position int

	// Section is the heading the passage falls under, if any.
	// Split sections carry a "(part N)" suffix.
	Section string

	// Content is the full passage text sent to the embedding provider.
	// It is transient and never persisted; only Preview is stored.
	Content string

	// Preview is a markup-stripped excerpt of roughly the first hundred
	// words, ending in an ellipsis when truncated.
	Preview string

	// Embedding is the vector representation of Content.
	Embedding []float32
}
