// Package domain defines the core business entities for Semdex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: an indexed vault file, keyed by relative path
//   - Passage: a bounded searchable slice of a document
//   - SearchResult: a scored passage returned to callers
//   - SyncProgress: in-memory state of the reconciliation pass
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
