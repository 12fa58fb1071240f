package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"owlsync/internal/adapters/tui/styles"
	"owlsync/internal/domain"
)

// screen accumulates the lines of a view below its title
type screen struct {
	b strings.Builder
}

func newScreen(title string) *screen {
	s := &screen{}
	return s.Line(styles.Title.Render(title))
}

func (s *screen) Line(text string) *screen {
	s.b.WriteString(text)
	s.b.WriteByte('\n')
	return s
}

func (s *screen) BlankLine() *screen {
	return s.Line("")
}

func (s *screen) Subtitle(text string) *screen {
	return s.Line(styles.Subtitle.Render(text)).BlankLine()
}

func (s *screen) Muted(text string) *screen {
	return s.Line(styles.MutedText.Render(text))
}

// Pair writes a "label: value" line
func (s *screen) Pair(label, value string) *screen {
	return s.Line(styles.InputLabel.Render(label+":") + " " + value)
}

// Field is Pair for optional plugin metadata, left out when value is empty
func (s *screen) Field(label, value string) *screen {
	if value == "" {
		return s
	}
	return s.Pair(label, value)
}

// Flag writes a yes/no line
func (s *screen) Flag(label string, set bool) *screen {
	if set {
		return s.Pair(label, "yes")
	}
	return s.Pair(label, "no")
}

// Message writes the status line of a view, red for errors
func (s *screen) Message(text string, isErr bool) *screen {
	switch {
	case text == "":
		return s
	case isErr:
		return s.Line(styles.ErrorMsg.Render(text)).BlankLine()
	default:
		return s.Line(styles.Success.Render(text)).BlankLine()
	}
}

// Help ends the screen with a key hint line and returns it framed
func (s *screen) Help(bindings ...key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, styles.HelpKey.Render(h.Key)+" "+styles.HelpDesc.Render(h.Desc))
	}
	s.b.WriteString(strings.Join(hints, styles.HelpSeparator.String()))
	return s.String()
}

func (s *screen) String() string {
	return styles.App.Render(s.b.String())
}

// formatBadge renders the colored format tag shown before a plugin name
func formatBadge(f domain.PluginFormat) string {
	return styles.Badge.Foreground(styles.FormatColor(f)).Render(f.DisplayName())
}
