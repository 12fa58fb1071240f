package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"owlsync/internal/adapters/tui/styles"
	"owlsync/internal/application/commands"
	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// CatalogKeyMap defines key bindings for the catalog view
type CatalogKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Enter    key.Binding
	Filter   key.Binding
	Sync     key.Binding
	DiffSync key.Binding
	Native   key.Binding
	Reset    key.Binding
	Copy     key.Binding
	Reveal   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var CatalogKeys = CatalogKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("l", "right", "pgdown"),
		key.WithHelp("l/→", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("h", "left", "pgup"),
		key.WithHelp("h/←", "prev page"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "details"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Sync: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sync"),
	),
	DiffSync: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "quick sync"),
	),
	Native: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "toggle native"),
	),
	Reset: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reset footprint"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy path"),
	),
	Reveal: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "reveal"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var filterKeys = struct {
	Apply key.Binding
	Clear key.Binding
}{
	Apply: key.NewBinding(key.WithKeys("enter")),
	Clear: key.NewBinding(key.WithKeys("esc")),
}

// CatalogModel lists the plugins of the catalog with an inline fuzzy filter
type CatalogModel struct {
	ViewState
	repo ports.PluginRepository

	all       []domain.Plugin
	shown     []domain.Plugin
	loaded    bool
	cursor    *pluginCursor
	filter    textinput.Model
	filtering bool
	confirm   *Confirmation
}

type pluginsLoadedMsg struct {
	plugins []domain.Plugin
}

type errMsg struct {
	err error
}

// NewCatalogModel creates a new catalog model
func NewCatalogModel(repo ports.PluginRepository) *CatalogModel {
	input := textinput.New()
	input.Placeholder = "name, manufacturer or file..."
	input.Prompt = "/ "

	return &CatalogModel{
		repo:   repo,
		cursor: newPluginCursor(15),
		filter: input,
	}
}

// Init loads the catalog
func (m *CatalogModel) Init() tea.Cmd {
	return m.loadPlugins
}

// Reload reloads the catalog, keeping the filter
func (m *CatalogModel) Reload() tea.Cmd {
	return m.loadPlugins
}

func (m *CatalogModel) loadPlugins() tea.Msg {
	plugins, err := commands.NewListPluginsCommand(m.repo).Execute(context.Background())
	if err != nil {
		return errMsg{err}
	}
	return pluginsLoadedMsg{plugins}
}

// Update handles messages for the catalog
func (m *CatalogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case pluginsLoadedMsg:
		m.all = msg.plugins
		m.loaded = true
		m.applyFilter()
		return m, nil

	case errMsg:
		m.loaded = true
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case StatusMsg:
		m.SetMessage(msg.Text, msg.IsErr)
		return m, nil

	case tea.KeyMsg:
		if m.confirm != nil {
			done, cmd := m.confirm.HandleKeyMsg(msg)
			if done {
				m.confirm = nil
			}
			return m, cmd
		}
		if m.filtering {
			return m, m.updateFilter(msg)
		}
		m.ClearMessage()
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *CatalogModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, CatalogKeys.Quit):
		return tea.Quit

	case key.Matches(msg, CatalogKeys.Up):
		m.cursor.move(-1)
	case key.Matches(msg, CatalogKeys.Down):
		m.cursor.move(1)
	case key.Matches(msg, CatalogKeys.NextPage):
		m.cursor.turn(1)
	case key.Matches(msg, CatalogKeys.PrevPage):
		m.cursor.turn(-1)
	case key.Matches(msg, CatalogKeys.Top):
		m.cursor.first()
	case key.Matches(msg, CatalogKeys.Bottom):
		m.cursor.last()

	case key.Matches(msg, CatalogKeys.Filter):
		m.filtering = true
		return m.filter.Focus()

	case key.Matches(msg, CatalogKeys.Sync):
		return func() tea.Msg { return StartSyncMsg{Differential: false} }
	case key.Matches(msg, CatalogKeys.DiffSync):
		return func() tea.Msg { return StartSyncMsg{Differential: true} }

	case key.Matches(msg, CatalogKeys.Help):
		return func() tea.Msg { return SwitchToHelpMsg{} }
	}

	p := m.Selected()
	if p == nil {
		return nil
	}

	switch {
	case key.Matches(msg, CatalogKeys.Enter):
		plugin := *p
		return func() tea.Msg { return SwitchToDetailMsg{Plugin: plugin} }
	case key.Matches(msg, CatalogKeys.Native):
		return toggleNative(*p)
	case key.Matches(msg, CatalogKeys.Reset):
		m.confirm = resetConfirmation(p.Path)
	case key.Matches(msg, CatalogKeys.Copy):
		path := p.Path
		return func() tea.Msg { return CopyPathMsg{Path: path} }
	case key.Matches(msg, CatalogKeys.Reveal):
		path := p.Path
		return func() tea.Msg { return RevealMsg{Path: path} }
	}
	return nil
}

func (m *CatalogModel) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, filterKeys.Clear):
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return nil
	case key.Matches(msg, filterKeys.Apply):
		m.filtering = false
		m.filter.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return cmd
}

// applyFilter ranks plugins against the filter. Short queries show the
// whole catalog in storage order. The selected plugin stays selected while
// it is listed; otherwise the best match is.
func (m *CatalogModel) applyFilter() {
	var selected string
	if p := m.Selected(); p != nil {
		selected = p.Path
	}

	query := strings.TrimSpace(m.filter.Value())
	if len(query) < 2 {
		m.shown = m.all
	} else {
		ranked := commands.RankPlugins(m.all, query)
		m.shown = make([]domain.Plugin, len(ranked))
		for i, r := range ranked {
			m.shown[i] = r.Plugin
		}
	}
	m.cursor.reset(m.shown, selected)
}

// Selected returns the plugin under the cursor
func (m *CatalogModel) Selected() *domain.Plugin {
	if i := m.cursor.index; i < len(m.shown) {
		return &m.shown[i]
	}
	return nil
}

// Shown returns the plugins currently listed
func (m *CatalogModel) Shown() []domain.Plugin {
	return m.shown
}

// SetSize updates the view dimensions and the page size
func (m *CatalogModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	// title, counters, filter, message and help take about ten lines
	m.cursor.setRows(max(height-10, 5))
}

// View renders the catalog
func (m *CatalogModel) View() string {
	if !m.loaded {
		return styles.App.Render("Loading catalog...")
	}

	page, pages := m.cursor.page()
	vb := newScreen("owlsync")
	vb.Subtitle(fmt.Sprintf("%d of %d plugins • page %d/%d", len(m.shown), len(m.all), page, pages))

	if m.filtering || m.filter.Value() != "" {
		vb.Line(m.filter.View()).BlankLine()
	}

	if len(m.all) == 0 {
		vb.Muted("The catalog is empty. Press s to sync your plugin directories.")
	} else if len(m.shown) == 0 {
		vb.Muted("No plugin matches the filter.")
	}

	start, end := m.cursor.window()
	for i := start; i < end; i++ {
		vb.Line(renderPluginRow(m.shown[i], i == m.cursor.index, m.Width))
	}

	vb.BlankLine()
	vb.Message(m.Message, m.MessageErr)
	if m.confirm != nil {
		vb.Line(m.confirm.View())
		return vb.String()
	}
	if m.filtering {
		vb.Muted("enter apply • esc clear")
		return vb.String()
	}
	return vb.Help(CatalogKeys.Enter, CatalogKeys.Filter, CatalogKeys.Sync, CatalogKeys.DiffSync,
		CatalogKeys.Native, CatalogKeys.Help, CatalogKeys.Quit)
}

func renderPluginRow(p domain.Plugin, selected bool, width int) string {
	native := " "
	if p.NativeCompatible {
		native = styles.NativeBadge.String()
	}

	name := padRight(p.Name, 28)
	if selected {
		name = styles.RowSelected.Render(name)
	} else if p.Disabled {
		name = styles.RowDisabled.Render(name)
	} else {
		name = styles.Row.Render(name)
	}

	path := p.Path
	if limit := width - 44; limit > 10 && len(path) > limit {
		path = "…" + path[len(path)-limit+1:]
	}

	return fmt.Sprintf("%s %s %s %s", formatBadge(p.Format), native, name, styles.PathText.Render(path))
}

func toggleNative(p domain.Plugin) tea.Cmd {
	enabled := p.Footprint == nil || p.Footprint.NativeDiscoveryEnabled
	path := p.Path
	return func() tea.Msg {
		return ToggleNativeDiscoveryMsg{Path: path, Enabled: !enabled}
	}
}

func resetConfirmation(path string) *Confirmation {
	return NewConfirmation(fmt.Sprintf("Reset discovery settings of %s?", path), func() tea.Msg {
		return ResetFootprintMsg{Path: path}
	})
}

func padRight(s string, length int) string {
	if n := len([]rune(s)); n < length {
		return s + strings.Repeat(" ", length-n)
	}
	return s
}
