package views

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"owlsync/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	ViewState
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return SwitchToCatalogMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	vb := newScreen("owlsync help")
	vb.Subtitle("Audio plugin catalog")

	vb.Line(styles.InputLabel.Render("Navigation"))
	vb.Line(helpLine("j / k / ↑ / ↓", "Move up/down"))
	vb.Line(helpLine("h / l / ← / →", "Previous/next page"))
	vb.Line(helpLine("g / G", "First/last plugin"))
	vb.Line(helpLine("Enter", "Plugin details"))
	vb.Line(helpLine("/", "Filter by name, manufacturer or file"))
	vb.BlankLine()

	vb.Line(styles.InputLabel.Render("Sync"))
	vb.Line(helpLine("s", "Full sync: clear and rebuild the catalog"))
	vb.Line(helpLine("d", "Differential sync: only new and missing plugins"))
	vb.Line(helpLine("esc", "Cancel a running sync"))
	vb.BlankLine()

	vb.Line(styles.InputLabel.Render("Plugin"))
	vb.Line(helpLine("t", "Toggle native discovery"))
	vb.Line(helpLine("x", "Reset discovery settings"))
	vb.Line(helpLine("c", "Copy path to clipboard"))
	vb.Line(helpLine("o", "Reveal in file manager"))
	vb.BlankLine()

	vb.Line(styles.InputLabel.Render("General"))
	vb.Line(helpLine("?", "Toggle help"))
	vb.Line(helpLine("q / Ctrl+C", "Quit"))
	vb.BlankLine()

	return vb.Help(HelpKeys.Close)
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 20)) + styles.HelpDesc.Render(desc)
}
