// Package sqlite provides SQLite-backed implementations of the document
// store, the vector index and the scheduler store.
//
// It uses modernc.org/sqlite, a pure Go driver that needs no CGO, through
// sqlx. All three stores share one database file:
//
//   - DocumentStore: documents and tags, written in one transaction
//   - VectorIndex: float32 embeddings as little-endian BLOBs, searched by
//     exact cosine distance
//   - SchedulerStore: background task state and history
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each applied version is recorded in
// schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.omnimind/data/omnimind.db
package sqlite
