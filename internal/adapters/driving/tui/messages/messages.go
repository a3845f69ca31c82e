// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Response *domain.SearchResponse
	Err      error
}

// AnswerCompleted carries a composed answer back to the model.
type AnswerCompleted struct {
	Answer *domain.Answer
	Err    error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewVersions lists saved index versions.
	ViewVersions
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewVersions:
		return "versions"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// VersionsLoaded carries the saved index versions.
type VersionsLoaded struct {
	Versions []domain.IndexVersion
	Err      error
}

// VersionActivated signals that a version was made current.
type VersionActivated struct {
	Name string
	Err  error
}

// IndexReloaded is sent when a newer index version was published by
// another process and loaded.
type IndexReloaded struct {
	Name string
}
