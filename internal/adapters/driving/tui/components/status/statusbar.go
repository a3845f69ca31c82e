// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// State represents the current activity shown in the bar.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateAnswering State = "answering"
	StateResults   State = "results"
	StateError     State = "error"
)

// Bar displays the active strategy, index version, activity and key hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	resultCount int
	strategy    domain.SearchStrategy
	version     string
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles:   s,
		keymap:   km,
		state:    StateReady,
		strategy: domain.SearchStrategyHybrid,
		width:    80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := max(s.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	version := s.version
	if version == "" {
		version = "(empty index)"
	}
	parts := []string{
		s.styles.Badge.Render(string(s.strategy)),
		s.styles.Muted.Render(version),
	}

	switch s.state {
	case StateSearching:
		parts = append(parts, s.styles.Muted.Render("Searching..."))
	case StateAnswering:
		parts = append(parts, s.styles.Muted.Render("Composing answer..."))
	case StateError:
		msg := "Error"
		if s.message != "" {
			msg = "Error: " + s.message
		}
		parts = append(parts, s.styles.Error.Render(msg))
	case StateResults:
		parts = append(parts, s.styles.Normal.Render(fmt.Sprintf("%d results", s.resultCount)))
	case StateReady:
		if s.message != "" {
			parts = append(parts, s.styles.Success.Render(s.message))
		}
	}
	return strings.Join(parts, " ")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateResults && s.resultCount > 0 {
		bindings = s.keymap.ResultsHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return s.styles.Help.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error or notice text.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetResultCount sets the result count.
func (s *Bar) SetResultCount(count int) {
	s.resultCount = count
}

// SetStrategy sets the strategy badge.
func (s *Bar) SetStrategy(strategy domain.SearchStrategy) {
	s.strategy = strategy
}

// SetVersion sets the current index version name.
func (s *Bar) SetVersion(name string) {
	s.version = name
}

// Version returns the displayed index version name.
func (s *Bar) Version() string {
	return s.version
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Clear resets activity and message, keeping strategy and version.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
}
