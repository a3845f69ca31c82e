// Package search provides the campaign search and answer view for the TUI.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driving"
)

// strategies is the cycle order for the strategy key.
var strategies = []domain.SearchStrategy{
	domain.SearchStrategyHybrid,
	domain.SearchStrategyVector,
	domain.SearchStrategyKeyword,
}

// View is the search view: query input, optional answer, results and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	searchService driving.SearchService
	queryService  driving.QueryService
	ctx           context.Context

	strategy   domain.SearchStrategy
	k          int
	answer     *domain.Answer
	lastQuery  string
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new search view. queryService may be nil, in which case
// the ask key reports that answers are unavailable.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	searchService driving.SearchService,
	queryService driving.QueryService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQueryInput(s),
		list:          list.NewResultList(s),
		statusbar:     status.NewBar(s, km),
		searchService: searchService,
		queryService:  queryService,
		ctx:           context.Background(),
		strategy:      domain.SearchStrategyHybrid,
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithOptions sets the initial strategy and result count. A zero k keeps
// the service default.
func (v *View) WithOptions(strategy domain.SearchStrategy, k int) *View {
	if strategy.IsValid() {
		v.strategy = strategy
	}
	v.k = k
	v.statusbar.SetStrategy(v.strategy)
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if key.Matches(msg, v.keymap.Search) {
			query := v.input.Value()
			if query == "" {
				return v, nil
			}
			return v, v.submit(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.NewSearch):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case key.Matches(msg, v.keymap.Strategy):
		v.cycleStrategy()
		if v.lastQuery != "" {
			return v, v.submit(v.lastQuery)
		}
	case key.Matches(msg, v.keymap.Ask):
		if v.lastQuery == "" {
			return v, nil
		}
		v.statusbar.SetState(status.StateAnswering)
		return v, v.performAsk(v.lastQuery)
	}
	return v, nil
}

func (v *View) submit(query string) tea.Cmd {
	v.lastQuery = query
	v.answer = nil
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetState(status.StateSearching)
	return v.performSearch(query)
}

func (v *View) cycleStrategy() {
	for i, s := range strategies {
		if s == v.strategy {
			v.strategy = strategies[(i+1)%len(strategies)]
			break
		}
	}
	v.statusbar.SetStrategy(v.strategy)
}

func (v *View) options() domain.SearchOptions {
	return domain.SearchOptions{K: v.k, Strategy: v.strategy}
}

// performSearch returns a command that runs the query against the index.
func (v *View) performSearch(query string) tea.Cmd {
	ctx, opts := v.ctx, v.options()
	return func() tea.Msg {
		if v.searchService == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		resp, err := v.searchService.Search(ctx, query, opts)
		return messages.SearchCompleted{Response: resp, Err: err}
	}
}

// performAsk returns a command that composes an answer for query.
func (v *View) performAsk(query string) tea.Cmd {
	ctx, opts := v.ctx, v.options()
	return func() tea.Msg {
		if v.queryService == nil {
			return messages.AnswerCompleted{Err: ErrNoQueryService}
		}
		answer, err := v.queryService.Ask(ctx, query, opts)
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	var results []domain.SearchResult
	if msg.Response != nil {
		results = msg.Response.Results
	}
	v.list.SetResults(results)
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(results))
	v.focusInput = false
	v.input.Blur()
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	v.err = nil
	v.answer = msg.Answer
	v.statusbar.SetState(status.StateResults)
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("Campaign Search"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	if v.answer != nil {
		sections = append(sections, v.renderAnswer(), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderAnswer() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(v.styles.Normal.Render(v.answer.Text))
	if len(v.answer.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("Sources (%d):", v.answer.NumSources)))
		for _, src := range v.answer.Sources {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  - %s (%s) ", src.Title, src.CampaignID)))
			b.WriteString(v.styles.Score.Render(fmt.Sprintf("%.3f", src.Score)))
		}
	}
	return v.styles.Answer.Width(max(v.width-4, 20)).Render(b.String())
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	// header, input, gaps and status bar
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// SetVersion updates the index version shown in the status bar.
func (v *View) SetVersion(name string) {
	v.statusbar.SetVersion(name)
}

// Notify shows a transient notice in the status bar.
func (v *View) Notify(message string) {
	if v.statusbar.State() == status.StateError {
		return
	}
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage(message)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current text of the input.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the input text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Strategy returns the strategy used for the next search.
func (v *View) Strategy() domain.SearchStrategy {
	return v.strategy
}

// Results returns the current search results.
func (v *View) Results() []domain.SearchResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Answer returns the last composed answer, if any.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to an empty, focused input.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.answer = nil
	v.lastQuery = ""
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
