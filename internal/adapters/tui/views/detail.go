package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"owlsync/internal/adapters/tui/styles"
	"owlsync/internal/domain"
)

// DetailKeyMap defines key bindings for the plugin detail view
type DetailKeyMap struct {
	Back   key.Binding
	Native key.Binding
	Reset  key.Binding
	Copy   key.Binding
	Reveal key.Binding
}

var DetailKeys = DetailKeyMap{
	Back: key.NewBinding(
		key.WithKeys("esc", "q", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Native: CatalogKeys.Native,
	Reset:  CatalogKeys.Reset,
	Copy:   CatalogKeys.Copy,
	Reveal: CatalogKeys.Reveal,
}

// DetailModel shows one plugin with its components and footprint
type DetailModel struct {
	ViewState
	plugin  domain.Plugin
	confirm *Confirmation
}

// NewDetailModel creates a new detail model
func NewDetailModel() *DetailModel {
	return &DetailModel{}
}

// SetPlugin sets the plugin to show
func (m *DetailModel) SetPlugin(p domain.Plugin) {
	m.plugin = p
	m.confirm = nil
	m.ClearMessage()
}

// Plugin returns the plugin shown
func (m *DetailModel) Plugin() domain.Plugin {
	return m.plugin
}

// Init initializes the detail view
func (m *DetailModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view
func (m *DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
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
		m.ClearMessage()

		switch {
		case key.Matches(msg, DetailKeys.Back):
			return m, func() tea.Msg { return SwitchToCatalogMsg{} }
		case key.Matches(msg, DetailKeys.Native):
			return m, toggleNative(m.plugin)
		case key.Matches(msg, DetailKeys.Reset):
			m.confirm = resetConfirmation(m.plugin.Path)
			return m, nil
		case key.Matches(msg, DetailKeys.Copy):
			path := m.plugin.Path
			return m, func() tea.Msg { return CopyPathMsg{Path: path} }
		case key.Matches(msg, DetailKeys.Reveal):
			path := m.plugin.Path
			return m, func() tea.Msg { return RevealMsg{Path: path} }
		}
	}

	return m, nil
}

// View renders the plugin
func (m *DetailModel) View() string {
	p := m.plugin
	vb := newScreen(p.Name)
	vb.Subtitle(p.Path)

	vb.Pair("Format", formatBadge(p.Format))
	vb.Field("Type", string(p.Type))
	vb.Field("Descriptive name", p.DescriptiveName)
	vb.Field("Manufacturer", p.ManufacturerName)
	vb.Field("Version", p.Version)
	vb.Field("Category", p.Category)
	vb.Field("Identifier", p.Identifier)
	vb.Field("UID", p.UID)
	vb.Flag("Bundle", p.Bundle)
	vb.Flag("Disabled", p.Disabled)
	vb.Flag("Native compatible", p.NativeCompatible)
	vb.Flag("Sync complete", p.SyncComplete)

	discovery := "enabled (default)"
	if p.Footprint != nil {
		discovery = "disabled"
		if p.Footprint.NativeDiscoveryEnabled {
			discovery = "enabled"
		}
	}
	vb.Pair("Native discovery", discovery)

	if len(p.Components) > 0 {
		vb.BlankLine().Line(styles.InputLabel.Render(fmt.Sprintf("Components (%d)", len(p.Components))))
		for _, c := range p.Components {
			line := fmt.Sprintf("  %s  %s", padRight(c.Name, 28), styles.MutedText.Render(string(c.Type)))
			if c.ManufacturerName != "" {
				line += styles.MutedText.Render("  " + c.ManufacturerName)
			}
			vb.Line(line)
		}
	}

	vb.BlankLine()
	vb.Message(m.Message, m.MessageErr)
	if m.confirm != nil {
		vb.Line(m.confirm.View())
		return vb.String()
	}
	return vb.Help(DetailKeys.Back, DetailKeys.Native, DetailKeys.Reset, DetailKeys.Copy, DetailKeys.Reveal)
}
