// Package versions provides the index version list view for the TUI.
package versions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driving"
)

// ErrNoVersionService indicates that version management is not available.
var ErrNoVersionService = errors.New("version service not available")

// View lists saved index versions and switches the current one.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	service driving.VersionService
	ctx     context.Context

	versions []domain.IndexVersion
	selected int
	notice   string
	width    int
	height   int
	ready    bool
	loading  bool
	err      error
}

// NewView creates a new versions view.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.VersionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:  s,
		keymap:  km,
		service: service,
		ctx:     context.Background(),
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the version list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		if v.service == nil {
			return messages.VersionsLoaded{Err: ErrNoVersionService}
		}
		list, err := v.service.Versions(ctx)
		return messages.VersionsLoaded{Versions: list, Err: err}
	}
}

func (v *View) use(name string) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		if v.service == nil {
			return messages.VersionActivated{Name: name, Err: ErrNoVersionService}
		}
		return messages.VersionActivated{Name: name, Err: v.service.Use(ctx, name)}
	}
}

// Update handles messages for the versions view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.VersionsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.versions = msg.Versions
		if v.selected >= len(v.versions) {
			v.selected = max(len(v.versions)-1, 0)
		}
		return v, nil

	case messages.VersionActivated:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = "Now using " + msg.Name
		return v, v.load()

	case messages.IndexReloaded:
		return v, v.load()
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case key.Matches(msg, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case key.Matches(msg, v.keymap.Down):
		if v.selected < len(v.versions)-1 {
			v.selected++
		}
	case key.Matches(msg, v.keymap.Use):
		if v.selected < len(v.versions) && !v.versions[v.selected].Current {
			return v, v.use(v.versions[v.selected].Name)
		}
	case key.Matches(msg, v.keymap.Reload):
		v.loading = true
		v.notice = ""
		return v, v.load()
	}
	return v, nil
}

// View renders the version list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Index Versions"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading versions..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.versions) == 0:
		b.WriteString(v.styles.Muted.Render("No saved versions. Run `campaign-rag index` to build one."))
	default:
		for i := range v.versions {
			b.WriteString(v.renderVersion(i, &v.versions[i]))
			b.WriteString("\n")
		}
	}

	if v.notice != "" && v.err == nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderVersion(index int, ver *domain.IndexVersion) string {
	marker := " "
	if ver.Current {
		marker = "*"
	}
	name := ver.Name
	if ver.Legacy {
		name += " (legacy)"
	}
	line := fmt.Sprintf("%s %-42s %6d chunks  dim %-4d  %s",
		marker, name, ver.ChunkCount, ver.Dimension, ver.CreatedAt.Local().Format("2006-01-02 15:04"))

	if index == v.selected {
		return "> " + v.styles.Selected.Render(line)
	}
	return "  " + v.styles.Normal.Render(line)
}

func (v *View) renderHelp() string {
	bindings := v.keymap.VersionsHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return v.styles.Help.Render(strings.Join(hints, "  "))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Versions returns the loaded versions.
func (v *View) Versions() []domain.IndexVersion {
	return v.versions
}

// Current returns the name of the current version, or "" when none is loaded.
func (v *View) Current() string {
	for _, ver := range v.versions {
		if ver.Current {
			return ver.Name
		}
	}
	return ""
}

// SelectedIndex returns the selected row.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
