package styles

import (
	"github.com/charmbracelet/lipgloss"

	"owlsync/internal/domain"
)

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")
	Black     = lipgloss.Color("#000000")

	// Format colors
	FormatVST2 = lipgloss.Color("#6366F1") // Indigo
	FormatVST3 = lipgloss.Color("#8B5CF6") // Violet
	FormatAU   = lipgloss.Color("#EC4899") // Pink
	FormatLV2  = lipgloss.Color("#F97316") // Orange

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Plugin rows
	Row = lipgloss.NewStyle()

	RowSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	RowDisabled = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	Badge = lipgloss.NewStyle().
		Bold(true).
		Width(5)

	NativeBadge = lipgloss.NewStyle().
			Foreground(Secondary).
			SetString("●")

	PathText = lipgloss.NewStyle().
			Foreground(Muted)

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(White).
			Padding(0, 1)

	StatusText = lipgloss.NewStyle().
			Foreground(Muted)

	// Input styles
	InputLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	InputField = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningMsg = lipgloss.NewStyle().
			Foreground(Warning)

	// Search
	SearchMatch = lipgloss.NewStyle().
			Background(Warning).
			Foreground(Black)

	// Muted text style (for using Muted color as a style)
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// FormatColor returns the badge color of a plugin format
func FormatColor(f domain.PluginFormat) lipgloss.Color {
	switch f {
	case domain.FormatVST2:
		return FormatVST2
	case domain.FormatVST3:
		return FormatVST3
	case domain.FormatAU:
		return FormatAU
	case domain.FormatLV2:
		return FormatLV2
	default:
		return Primary
	}
}
