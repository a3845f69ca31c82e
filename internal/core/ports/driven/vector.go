package driven

import (
	"context"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// VectorIndex owns the current index version and its lifecycle.
// Readers take a snapshot per query; builders never touch the published version.
type VectorIndex interface {
	// Current returns the version queries should use. Never nil.
	Current() IndexSnapshot

	// CreateNewIndex starts an unpublished build under a fresh version name.
	// Returns domain.ErrIndexingInProgress if another build is open.
	CreateNewIndex() (IndexBuilder, error)

	// Activate publishes a saved snapshot as the current version.
	Activate(snapshot IndexSnapshot) error

	// LoadIndex replaces the current version with a saved version by name.
	LoadIndex(ctx context.Context, name string) error

	// LoadLatestIndex replaces the current version with the newest saved one.
	LoadLatestIndex(ctx context.Context) error

	// Versions lists the saved versions, newest first.
	Versions(ctx context.Context) ([]domain.IndexVersion, error)

	// Prune removes the oldest saved versions beyond keep. The current
	// version is never removed. Returns the names removed.
	Prune(ctx context.Context, keep int) ([]string, error)
}

// IndexSnapshot is an immutable view of one index version.
type IndexSnapshot interface {
	// Name returns the version name. Empty for a never-saved empty index.
	Name() string

	// TotalCount returns the number of vectors (and chunks).
	TotalCount() int

	// Dimension returns the vector length.
	Dimension() int

	// Chunks returns the chunk array, positionally aligned with the vectors.
	// Callers must not modify it.
	Chunks() []domain.Chunk

	// Search returns up to k nearest neighbours by squared L2 distance,
	// closest first, with Score set to the distance and Rank 1-based.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error)

	// Distance returns the squared L2 distance between query and the vector
	// at position.
	Distance(query []float32, position int) (float64, error)
}

// IndexBuilder accumulates one indexing run before it is published.
type IndexBuilder interface {
	// Name returns the version name the build will be saved under.
	Name() string

	// AddVectors appends vectors and their chunks, preserving alignment.
	// Returns domain.ErrDimensionMismatch if the lengths differ.
	AddVectors(vectors [][]float32, chunks []domain.Chunk) error

	// TotalCount returns the number of vectors added so far.
	TotalCount() int

	// Save persists the build atomically and returns its immutable snapshot.
	Save(ctx context.Context) (IndexSnapshot, error)

	// Discard abandons the build and releases the build slot.
	Discard()
}
