package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/views/versions"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView     *menu.View
	searchView   *search.View
	versionsView *versions.View

	currentView messages.ViewType

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		menuView:     menu.NewView(s, km),
		searchView:   search.NewView(s, km, ports.Search, ports.Query).WithOptions(ports.Strategy, ports.K),
		versionsView: versions.NewView(s, km, ports.Versions),
		currentView:  messages.ViewMenu,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.versionsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.SetWindowTitle("campaign-rag")}
	if a.ports.Versions != nil {
		cmds = append(cmds, a.versionsView.Init())
	}
	if a.ports.Reloads != nil {
		cmds = append(cmds, a.waitForReload())
	}
	return tea.Batch(cmds...)
}

// waitForReload blocks until the watcher reports a newly loaded version.
func (a *App) waitForReload() tea.Cmd {
	reloads, ctx := a.ports.Reloads, a.ctx
	return func() tea.Msg {
		select {
		case name, ok := <-reloads:
			if !ok {
				return nil
			}
			return messages.IndexReloaded{Name: name}
		case <-ctx.Done():
			return nil
		}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		return a, a.updateCurrent(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewVersions:
			return a, a.versionsView.Init()
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, nil

	case messages.SearchCompleted, messages.AnswerCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.VersionsLoaded:
		a.versionsView, cmd = a.versionsView.Update(msg)
		if msg.Err == nil {
			a.searchView.SetVersion(a.versionsView.Current())
		}
		return a, cmd

	case messages.VersionActivated:
		a.versionsView, cmd = a.versionsView.Update(msg)
		return a, cmd

	case messages.IndexReloaded:
		a.searchView.SetVersion(msg.Name)
		a.searchView.Notify("Loaded " + msg.Name)
		cmds := []tea.Cmd{a.waitForReload()}
		if a.ports.Versions != nil {
			a.versionsView, cmd = a.versionsView.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case messages.ErrorOccurred:
		if a.currentView == messages.ViewSearch {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	if a.currentView == messages.ViewSearch {
		a.searchView, cmd = a.searchView.Update(msg)
	}
	return a, cmd
}

func (a *App) updateCurrent(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewVersions:
		a.versionsView, cmd = a.versionsView.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewVersions:
		return a.versionsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("Search results can be re-ranked with another strategy " +
		"and answered from the retrieved campaigns.\n\n[esc] back to menu  [ctrl+c] quit"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.versionsView.SetDimensions(width, height)
}
