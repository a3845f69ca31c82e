// Package domain defines the core business entities for campaign-rag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Campaign: A promotional campaign record from the collection feed
//   - Chunk: A retrieval unit derived from exactly one campaign
//   - SearchResult: A scored chunk returned for a query
//   - IndexVersion: A named, immutable snapshot of vectors and chunks
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
