// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Corpus: Enumerates, reads, and watches the vault folder tree
//   - VectorStore: Document, passage, and embedding persistence with
//     similarity queries
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, the
//     index reports itself unavailable instead of failing call by call.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or corpus implementation package
package driven
