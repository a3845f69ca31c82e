package tui

import "errors"

// Error definitions for the TUI package.
var (
	// ErrMissingSearchService indicates the search service port is nil.
	ErrMissingSearchService = errors.New("tui: search service is required")

	// ErrInvalidPorts indicates the ports configuration is invalid.
	ErrInvalidPorts = errors.New("tui: invalid ports configuration")
)
