package tui

import (
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driving"
)

// Ports holds the driving ports the TUI talks to. Only Search is required;
// the answer and version screens report themselves unavailable without
// their services.
type Ports struct {
	Search   driving.SearchService
	Query    driving.QueryService
	Versions driving.VersionService

	// Reloads delivers the names of index versions loaded after another
	// process published them. May be nil.
	Reloads <-chan string

	// Strategy and K seed the search options; zero values use the
	// service defaults.
	Strategy domain.SearchStrategy
	K        int
}

// Validate checks that all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
