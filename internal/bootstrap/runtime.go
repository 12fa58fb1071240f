// Package bootstrap wires the adapters shared by the owlsync binaries.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"owlsync/internal/adapters/filesystem"
	"owlsync/internal/adapters/nativehost"
	"owlsync/internal/adapters/sqlite"
	"owlsync/internal/application/pluginsync"
	"owlsync/internal/config"
	"owlsync/internal/domain"
)

// Runtime holds the opened catalog and the sync orchestrator built from a
// configuration
type Runtime struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        *sqlite.Store
	Host         *nativehost.Host
	Orchestrator *pluginsync.Orchestrator
}

// New opens the catalog database and builds the orchestrator
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := sqlite.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	host := nativehost.NewHost(
		nativehost.WithEnabled(cfg.Native.Enabled),
		nativehost.WithBinary(cfg.Native.Binary),
		nativehost.WithTimeout(cfg.Native.Timeout),
	)
	if host.IsEnabled() && !host.LoaderAvailable() {
		logger.Warn("native scanner not found, plugins will not be enriched",
			zap.String("binary", host.Binary()))
	}

	platform := domain.Platform(cfg.Scan.Platform)
	orchestrator := pluginsync.NewOrchestrator(pluginsync.Dependencies{
		Plugins:      store.Plugins(),
		Symlinks:     store.Symlinks(),
		Footprints:   store.Footprints(),
		PluginProbe:  filesystem.NewPluginFileCollector(platform, logger.Named("filesystem")),
		SymlinkProbe: filesystem.NewSymlinkCollector(logger.Named("filesystem")),
		NativeHost:   host,
	},
		pluginsync.WithLogger(logger.Named("sync")),
		pluginsync.WithConcurrency(cfg.Native.Concurrency),
		pluginsync.WithProbeTimeout(cfg.Native.Timeout),
	)

	logger.Debug("catalog opened",
		zap.String("database", store.Path()),
		zap.String("platform", string(platform)),
		zap.Bool("native", host.IsEnabled()))

	return &Runtime{
		Config:       cfg,
		Logger:       logger,
		Store:        store,
		Host:         host,
		Orchestrator: orchestrator,
	}, nil
}

// ScanConfig returns the scan configuration of the runtime
func (r *Runtime) ScanConfig() domain.ScanConfig {
	return r.Config.ToScanConfig()
}

// Close flushes the logger and closes the catalog
func (r *Runtime) Close() error {
	_ = r.Logger.Sync()
	return r.Store.Close()
}
