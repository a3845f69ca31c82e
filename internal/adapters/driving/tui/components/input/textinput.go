// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/styles"
)

// MaxQueryLength caps the characters accepted in the query box.
const MaxQueryLength = 512

// QueryInput wraps a bubbles textinput for campaign queries.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewQueryInput creates a focused query input.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about a campaign, e.g. car loan with low interest"
	ti.Prompt = ""
	ti.CharLimit = MaxQueryLength
	ti.Width = 50
	ti.Focus()

	return &QueryInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init starts the cursor blink.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the labelled input box.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render("Query ")
	box := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, box)
}

// Value returns the query with surrounding whitespace removed.
func (q *QueryInput) Value() string {
	return strings.TrimSpace(q.textinput.Value())
}

// SetValue replaces the query text.
func (q *QueryInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus gives the input keyboard focus.
func (q *QueryInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes keyboard focus.
func (q *QueryInput) Blur() {
	q.textinput.Blur()
}

// Focused reports whether the input has focus.
func (q *QueryInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth fits the input box to the terminal width.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	// label and border padding
	q.textinput.Width = max(width-12, 20)
}

// Width returns the current width.
func (q *QueryInput) Width() int {
	return q.width
}

// Reset clears the query.
func (q *QueryInput) Reset() {
	q.textinput.Reset()
}
