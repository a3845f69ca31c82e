// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding
	Up   key.Binding
	Down key.Binding

	// Search submits the query typed into the input.
	Search key.Binding

	// Ask composes an answer for the current query from retrieved passages.
	Ask key.Binding

	// Strategy cycles between hybrid, vector and keyword retrieval.
	Strategy key.Binding

	// NewSearch refocuses the input from the results list.
	NewSearch key.Binding

	// Use makes the selected index version current.
	Use key.Binding

	// Reload re-reads the version list.
	Reload key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Search: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search"),
		),
		Ask: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "ask"),
		),
		Strategy: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "strategy"),
		),
		NewSearch: key.NewBinding(
			key.WithKeys("n", "/"),
			key.WithHelp("n", "new search"),
		),
		Use: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "use"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
	}
}

// ShortHelp returns the hints shown while typing a query.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Back}
}

// ResultsHelp returns the hints shown while browsing results.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Ask, k.Strategy, k.NewSearch, k.Back}
}

// VersionsHelp returns the hints shown in the version list.
func (k *KeyMap) VersionsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Use, k.Reload, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Back},
		{k.Search, k.Ask, k.Strategy, k.NewSearch},
		{k.Use, k.Reload},
		{k.Help, k.Quit},
	}
}
