// Package tui is the terminal interface of owlsync: a plugin catalog browser
// with live sync progress.
package tui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"owlsync/internal/adapters/tui/views"
	"owlsync/internal/application/commands"
	"owlsync/internal/application/pluginsync"
	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewCatalog ViewState = iota
	ViewDetail
	ViewSync
	ViewHelp
)

// Deps are the collaborators of the TUI
type Deps struct {
	Plugins      ports.PluginRepository
	Footprints   ports.FootprintRepository
	Orchestrator *pluginsync.Orchestrator
	Scan         domain.ScanConfig
	Revealer     ports.FileRevealer // may be nil
	Logger       *zap.Logger
}

// App is the main TUI application model
type App struct {
	deps Deps

	state   ViewState
	catalog *views.CatalogModel
	detail  *views.DetailModel
	sync    *views.SyncModel
	help    *views.HelpModel

	cancelSync context.CancelFunc
	progress   chan views.SyncProgressMsg

	copyPath func(string) error
}

// NewApp creates a new TUI application
func NewApp(deps Deps) *App {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &App{
		deps:     deps,
		state:    ViewCatalog,
		catalog:  views.NewCatalogModel(deps.Plugins),
		detail:   views.NewDetailModel(),
		sync:     views.NewSyncModel(),
		help:     views.NewHelpModel(),
		copyPath: clipboard.WriteAll,
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.catalog.Init()
}

// State returns the current view
func (a *App) State() ViewState {
	return a.state
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.catalog.SetSize(msg.Width, msg.Height)
		a.detail.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		a.sync.Update(msg)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			a.stopSync()
			return a, tea.Quit
		}

	// View switching messages
	case views.SwitchToCatalogMsg:
		a.state = ViewCatalog
		if msg.Reload {
			return a, a.catalog.Reload()
		}
		return a, nil

	case views.SwitchToDetailMsg:
		a.state = ViewDetail
		a.detail.SetPlugin(msg.Plugin)
		return a, nil

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	// Sync lifecycle
	case views.StartSyncMsg:
		return a, a.startSync(msg.Differential)

	case views.CancelSyncMsg:
		a.stopSync()
		return a, nil

	case views.SyncProgressMsg:
		a.sync.Update(msg)
		return a, waitForProgress(a.progress)

	case views.SyncFinishedMsg:
		a.cancelSync = nil
		a.sync.Update(msg)
		return a, nil

	// Plugin actions
	case views.ToggleNativeDiscoveryMsg:
		return a, a.setNativeDiscovery(msg.Path, msg.Enabled)

	case views.ResetFootprintMsg:
		return a, a.resetFootprint(msg.Path)

	case views.CopyPathMsg:
		return a, a.copy(msg.Path)

	case views.RevealMsg:
		return a, a.reveal(msg.Path)

	case footprintChangedMsg:
		if a.state == ViewDetail {
			p := a.detail.Plugin()
			p.Footprint = msg.footprint
			a.detail.SetPlugin(p)
		}
		return a, tea.Batch(a.catalog.Reload(), status(msg.message, false))
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewCatalog:
		_, cmd = a.catalog.Update(msg)
	case ViewDetail:
		_, cmd = a.detail.Update(msg)
	case ViewSync:
		_, cmd = a.sync.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewDetail:
		return a.detail.View()
	case ViewSync:
		return a.sync.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.catalog.View()
	}
}

func (a *App) startSync(differential bool) tea.Cmd {
	if a.cancelSync != nil {
		return status("A sync is already running", true)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan views.SyncProgressMsg, 32)
	a.cancelSync = cancel
	a.progress = ch
	a.state = ViewSync

	cfg := a.deps.Scan
	cfg.Differential = differential
	listener := &channelListener{ctx: ctx, ch: ch}
	orchestrator := a.deps.Orchestrator
	logger := a.deps.Logger

	runSync := func() tea.Msg {
		defer close(ch)
		defer cancel()

		result, err := commands.NewSyncCommand(orchestrator, cfg, listener).Execute(ctx)
		if err != nil {
			logger.Warn("sync from terminal ui failed", zap.Error(err))
			finished := views.SyncFinishedMsg{Err: err}
			if result != nil {
				finished.Stats = result.Stats
			}
			return finished
		}
		return views.SyncFinishedMsg{Stats: result.Stats, Message: result.Message}
	}

	return tea.Batch(a.sync.Start(differential), runSync, waitForProgress(ch))
}

func (a *App) stopSync() {
	if a.cancelSync != nil {
		a.cancelSync()
	}
}

type footprintChangedMsg struct {
	footprint *domain.PluginFootprint
	message   string
}

func (a *App) setNativeDiscovery(path string, enabled bool) tea.Cmd {
	repo := a.deps.Footprints
	return func() tea.Msg {
		fp, err := commands.NewSetNativeDiscoveryCommand(repo, path, enabled).Execute(context.Background())
		if err != nil {
			return views.StatusMsg{Text: err.Error(), IsErr: true}
		}
		state := "disabled"
		if fp.NativeDiscoveryEnabled {
			state = "enabled"
		}
		return footprintChangedMsg{footprint: fp, message: fmt.Sprintf("Native discovery %s", state)}
	}
}

func (a *App) resetFootprint(path string) tea.Cmd {
	repo := a.deps.Footprints
	return func() tea.Msg {
		if err := commands.NewResetFootprintCommand(repo, path).Execute(context.Background()); err != nil {
			return views.StatusMsg{Text: err.Error(), IsErr: true}
		}
		return footprintChangedMsg{message: "Discovery settings reset"}
	}
}

func (a *App) copy(path string) tea.Cmd {
	copyPath := a.copyPath
	return func() tea.Msg {
		if err := copyPath(path); err != nil {
			return views.StatusMsg{Text: fmt.Sprintf("copy failed: %v", err), IsErr: true}
		}
		return views.StatusMsg{Text: "Path copied to clipboard"}
	}
}

func (a *App) reveal(path string) tea.Cmd {
	revealer := a.deps.Revealer
	if revealer == nil {
		return status("No file manager configured", true)
	}
	return func() tea.Msg {
		if err := revealer.Reveal(path); err != nil {
			return views.StatusMsg{Text: fmt.Sprintf("reveal failed: %v", err), IsErr: true}
		}
		return nil
	}
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return views.StatusMsg{Text: text, IsErr: isErr}
	}
}
