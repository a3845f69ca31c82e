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
//   - VectorIndex: Versioned nearest-neighbour index over chunk vectors
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - Chunker: Splits campaigns into retrieval units
//   - QueryNormaliser: Lexical variations and query canonicalisation
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - CampaignStore: Campaign persistence between import and indexing
//   - CampaignSource: Reads campaigns from the collection feed
//   - IndexRunStore: Indexing run history. Without it, runs are only logged.
//   - AnswerGenerator: Composes answers. Without it, only retrieval is served.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
