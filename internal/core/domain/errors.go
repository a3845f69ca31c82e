package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Index Errors.

	// ErrDimensionMismatch indicates vectors and chunks are not aligned, or a
	// vector does not have the index dimension. Callers must not save after it.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIndexNotFound indicates a requested index version is not on storage.
	ErrIndexNotFound = errors.New("index version not found")

	// ErrIndexingInProgress indicates another indexing run holds the build.
	ErrIndexingInProgress = errors.New("indexing in progress")

	// ErrEmptyCorpus indicates an indexing run produced zero chunks.
	// Nothing is persisted and the previous version stays current.
	ErrEmptyCorpus = errors.New("empty corpus")

	// Provider Errors.

	// ErrEmbeddingFailure indicates the embedding provider failed.
	// It is propagated to the caller without local recovery.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the answer generator is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
