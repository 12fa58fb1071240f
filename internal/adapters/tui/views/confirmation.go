package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"owlsync/internal/adapters/tui/styles"
)

// ConfirmKeyMap defines key bindings for confirmation prompts
type ConfirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultConfirmKeys returns the default confirmation key bindings
var DefaultConfirmKeys = ConfirmKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

// Confirmation is an inline yes/no prompt that guards a destructive action
type Confirmation struct {
	Question string
	OnYes    func() tea.Msg
	Keys     ConfirmKeyMap
}

// NewConfirmation creates a prompt with the default keys
func NewConfirmation(question string, onYes func() tea.Msg) *Confirmation {
	return &Confirmation{
		Question: question,
		OnYes:    onYes,
		Keys:     DefaultConfirmKeys,
	}
}

// HandleKeyMsg processes a key while the prompt is shown. done reports that
// the prompt was answered and should be dismissed.
func (c *Confirmation) HandleKeyMsg(msg tea.KeyMsg) (done bool, cmd tea.Cmd) {
	switch {
	case key.Matches(msg, c.Keys.Cancel):
		return true, nil
	case key.Matches(msg, c.Keys.Confirm):
		return true, c.OnYes
	}
	return false, nil
}

// View renders the prompt
func (c *Confirmation) View() string {
	var b strings.Builder
	b.WriteString(styles.WarningMsg.Render(c.Question))
	b.WriteString(" ")
	b.WriteString(styles.HelpKey.Render("y"))
	b.WriteString(styles.HelpDesc.Render(" to confirm, "))
	b.WriteString(styles.HelpKey.Render("n"))
	b.WriteString(styles.HelpDesc.Render(" to cancel"))
	return b.String()
}
