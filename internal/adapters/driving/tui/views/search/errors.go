package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoSearchService indicates that no search service was provided.
	ErrNoSearchService = errors.New("search service is required")

	// ErrNoQueryService indicates that answers are not available.
	ErrNoQueryService = errors.New("answers are not available")
)
