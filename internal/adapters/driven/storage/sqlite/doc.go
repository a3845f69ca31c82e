// Package sqlite stores imported campaigns and indexing run history in a
// single SQLite database (modernc.org/sqlite, no CGO).
//
// Tables:
//
//   - campaigns: records written by 'campaign-rag import', read by 'index'
//   - index_runs: one row per indexing run, including skipped and failed runs
//
// Vectors never pass through this store; they live in the versioned
// vector index next to their chunks.
//
// The schema is created from the embedded migrations/ files, applied in
// name order and tracked in schema_migrations. The database defaults to
// ~/.campaign-rag/data/metadata.db and is opened in WAL mode.
package sqlite
