// Package sqlite provides the SQLite-based implementation of the vector store port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Document records, passage metadata, and
// passage embeddings live in one database file, and nearest-neighbour search runs
// inside SQLite through a registered cosine distance function.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Three tables hold the index: documents (keyed by
// vault-relative path), passages (keyed by passage ID, cascading from their
// document), and passage_vectors (one embedding BLOB per passage, cascading
// from the passage).
//
// # Data Location
//
// By default, the database is stored at ~/.semdex/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
