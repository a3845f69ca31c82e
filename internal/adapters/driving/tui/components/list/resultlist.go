// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// linesPerResult is the rendered height of one result (title, meta, snippet).
const linesPerResult = 3

// ResultList displays ranked campaign chunks in a navigable list.
type ResultList struct {
	results  []domain.SearchResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates an empty result list.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation keys.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the visible window of results around the selection.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	visible := max((r.height-2)/linesPerResult, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	lines := make([]string, 0, end-start+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), "")
	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}
	return strings.Join(lines, "\n")
}

func (r *ResultList) renderResult(index int, result *domain.SearchResult) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := result.Chunk.Title
	if title == "" {
		title = "(untitled campaign)"
	}
	title = truncate(fmt.Sprintf("[%d] %s", result.Rank, title), max(r.width-14, 10))

	score := fmt.Sprintf("%.3f", result.Score)
	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(indicator+title) + "  " + r.styles.Score.Render(score)
	} else {
		titleLine = r.styles.Normal.Render(indicator+title) + "  " + r.styles.Score.Render(score)
	}

	meta := fmt.Sprintf("    campaign %s  chunk %d  %s", result.Chunk.CampaignID, result.Chunk.Index, result.Chunk.Type)
	if result.Distance != nil {
		meta += fmt.Sprintf("  distance %.4f", *result.Distance)
	}

	snippet := truncate(strings.Join(strings.Fields(result.Chunk.Text), " "), max(r.width-6, 20))

	return titleLine + "\n" +
		r.styles.Muted.Render(meta) + "\n" +
		r.styles.Normal.Render("    "+snippet)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetResults replaces the list and resets the selection.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.SearchResult {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SelectedResult returns the selected result, or nil when the list is empty.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves the selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves the selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the area available to the list.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}
