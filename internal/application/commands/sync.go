package commands

import (
	"context"
	"fmt"

	"owlsync/internal/application"
	"owlsync/internal/application/pluginsync"
	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// SyncResult contains the result of a sync run
type SyncResult struct {
	Stats   *domain.SyncStats
	Message string
}

// SyncCommand runs a plugin sync
type SyncCommand struct {
	orchestrator *pluginsync.Orchestrator
	Config       domain.ScanConfig
	Listener     ports.SyncListener
}

// NewSyncCommand creates a new SyncCommand
func NewSyncCommand(orchestrator *pluginsync.Orchestrator, cfg domain.ScanConfig, listener ports.SyncListener) *SyncCommand {
	return &SyncCommand{
		orchestrator: orchestrator,
		Config:       cfg,
		Listener:     listener,
	}
}

// Validate checks the scan configuration
func (c *SyncCommand) Validate() error {
	return application.ValidateScanConfig(c.Config)
}

// Execute runs the sync. On failure the result still carries the partial
// stats.
func (c *SyncCommand) Execute(ctx context.Context) (*SyncResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	stats, err := c.orchestrator.Run(ctx, c.Config, c.Listener)
	if err != nil {
		return &SyncResult{Stats: stats}, err
	}

	return &SyncResult{
		Stats:   stats,
		Message: summarize(stats),
	}, nil
}

func summarize(stats *domain.SyncStats) string {
	if stats.Differential {
		return fmt.Sprintf("Synced %d new plugins, removed %d (%d native compatible, %d probe failures)",
			stats.PluginsSynced, stats.PluginsRemoved, stats.NativeCompatible, stats.ProbeFailures)
	}
	return fmt.Sprintf("Synced %d plugins and %d symlinks (%d native compatible, %d probe failures)",
		stats.PluginsSynced, stats.SymlinksCollected, stats.NativeCompatible, stats.ProbeFailures)
}
