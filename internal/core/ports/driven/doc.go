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
//   - DocumentStore: Source of truth for documents and their tags
//   - VectorIndex: Nearest-neighbour index keyed by document ID
//   - EmbeddingService: Turns text into fixed-length vectors
//   - Annotator: Derives tags and a summary from content
//   - IDGenerator: Mints document IDs
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ResultCache: Short-lived document projections. Never a source of truth.
//   - SchedulerStore: Background task state. Without it, reconciliation only runs on demand.
//   - LLMService: Language model behind the LLM annotator. Without it, the
//     keyword annotator is used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
