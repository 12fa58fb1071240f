package views

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"owlsync/internal/adapters/tui/styles"
	"owlsync/internal/domain"
)

// SyncProgressMsg carries one progress update of a running sync
type SyncProgressMsg struct {
	Percent float64
	Status  string
}

// SyncFinishedMsg reports the end of a sync run
type SyncFinishedMsg struct {
	Stats   *domain.SyncStats
	Message string
	Err     error
}

// SyncKeyMap defines key bindings for the sync view
type SyncKeyMap struct {
	Cancel key.Binding
	Back   key.Binding
}

var SyncKeys = SyncKeyMap{
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "enter", "q"),
		key.WithHelp("enter", "back to catalog"),
	),
}

const maxHistory = 6

// SyncModel shows the progress of a sync run
type SyncModel struct {
	ViewState
	bar     progress.Model
	spinner spinner.Model

	differential bool
	running      bool
	cancelling   bool
	started      time.Time
	percent      float64
	status       string
	history      []string
	result       *SyncFinishedMsg
}

// NewSyncModel creates a new sync view model
func NewSyncModel() *SyncModel {
	return &SyncModel{
		bar: progress.New(progress.WithDefaultGradient()),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary)),
		),
	}
}

// Start resets the view for a new run
func (m *SyncModel) Start(differential bool) tea.Cmd {
	m.differential = differential
	m.running = true
	m.cancelling = false
	m.started = time.Now()
	m.percent = 0
	m.status = "Starting..."
	m.history = nil
	m.result = nil
	m.ClearMessage()
	return m.spinner.Tick
}

// Running reports whether a run is in progress
func (m *SyncModel) Running() bool {
	return m.running
}

// Percent returns the last reported progress
func (m *SyncModel) Percent() float64 {
	return m.percent
}

// Init initializes the sync view
func (m *SyncModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the sync view
func (m *SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		m.bar.Width = min(max(msg.Width-8, 20), 80)
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SyncProgressMsg:
		if !m.running {
			return m, nil
		}
		if msg.Percent > m.percent {
			m.percent = msg.Percent
		}
		if msg.Status != "" && msg.Status != m.status {
			m.status = msg.Status
			m.history = append(m.history, msg.Status)
			if len(m.history) > maxHistory {
				m.history = m.history[len(m.history)-maxHistory:]
			}
		}
		return m, nil

	case SyncFinishedMsg:
		m.running = false
		m.result = &msg
		if msg.Err != nil {
			m.SetMessage(msg.Err.Error(), true)
		} else {
			m.percent = 100
			m.SetMessage(msg.Message, false)
		}
		return m, nil

	case tea.KeyMsg:
		if m.running {
			if key.Matches(msg, SyncKeys.Cancel) && !m.cancelling {
				m.cancelling = true
				m.status = "Cancelling..."
				return m, func() tea.Msg { return CancelSyncMsg{} }
			}
			return m, nil
		}
		if key.Matches(msg, SyncKeys.Back) {
			return m, func() tea.Msg { return SwitchToCatalogMsg{Reload: true} }
		}
	}

	return m, nil
}

// View renders the sync progress
func (m *SyncModel) View() string {
	title := "Full sync"
	if m.differential {
		title = "Differential sync"
	}
	vb := newScreen(title)

	if m.running {
		vb.Subtitle(fmt.Sprintf("%s %s", m.spinner.View(), m.status))
	} else {
		vb.Subtitle(fmt.Sprintf("finished in %s", m.elapsed()))
	}

	vb.Line(m.bar.ViewAs(m.percent / 100)).BlankLine()

	for _, h := range m.history {
		vb.Muted("  " + h)
	}
	vb.BlankLine()

	if m.result != nil && m.result.Stats != nil {
		s := m.result.Stats
		vb.Pair("Collected", fmt.Sprintf("%d plugins, %d symlinks", s.PluginsCollected, s.SymlinksCollected))
		if s.Differential {
			vb.Pair("Removed", fmt.Sprintf("%d plugins, %d symlinks", s.PluginsRemoved, s.SymlinksRemoved))
		} else {
			vb.Pair("Cleared", fmt.Sprintf("%d plugins, %d symlinks", s.PluginsCleared, s.SymlinksCleared))
		}
		vb.Pair("Native", fmt.Sprintf("%d compatible, %d components, %d failures",
			s.NativeCompatible, s.ComponentsCreated, s.ProbeFailures))
		vb.BlankLine()
	}

	vb.Message(m.Message, m.MessageErr)
	if m.running {
		return vb.Help(SyncKeys.Cancel)
	}
	return vb.Help(SyncKeys.Back)
}

func (m *SyncModel) elapsed() time.Duration {
	if m.result != nil && m.result.Stats != nil {
		return m.result.Stats.Duration.Round(time.Millisecond)
	}
	return time.Since(m.started).Round(time.Millisecond)
}
