// Package pluginsync reconciles the persisted plugin catalog with the
// plugin directories and enriches plugins through the native host.
//
// A run goes through these phases, in order:
//
//	init -> [clear] -> collect -> [diff -> persist_removals] -> persist_symlinks -> plugin_loop -> done
//
// Clear only runs for full syncs, diff and removals only for differential
// ones. Any unrecoverable error moves the run to failed. Writes already
// committed are kept: a run is best effort, not a transaction.
package pluginsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"owlsync/internal/application"
	"owlsync/internal/application/discovery"
	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

const (
	collectProgress = 10.0
	loopProgress    = 80.0
)

// Dependencies are the collaborators of the orchestrator
type Dependencies struct {
	Plugins      ports.PluginRepository
	Symlinks     ports.SymlinkRepository
	Footprints   ports.FootprintRepository
	PluginProbe  ports.PluginFileProbe
	SymlinkProbe ports.SymlinkProbe
	NativeHost   ports.NativeHost // may be nil
}

// Orchestrator runs plugin sync tasks. Only one run may be active at a time.
type Orchestrator struct {
	deps         Dependencies
	collector    *discovery.Collector
	logger       *zap.Logger
	concurrency  int
	probeTimeout time.Duration

	running     sync.Mutex
	footprintMu sync.Mutex
}

// Option configures the Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithConcurrency sets how many plugins are synced in parallel. Values
// above 1 should only be used when the native host tolerates concurrent
// loads.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// WithProbeTimeout bounds each native probe. Zero disables the bound.
func WithProbeTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.probeTimeout = d
	}
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(deps Dependencies, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps:        deps,
		logger:      zap.NewNop(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.collector = discovery.NewCollector(deps.PluginProbe, deps.SymlinkProbe,
		discovery.WithLogger(o.logger.Named("discovery")))
	return o
}

// Run executes one sync run. The returned stats are filled as far as the
// run got, also on failure. Run returns ErrSyncInProgress if another run is
// active, a ConfigurationError if cfg is invalid, and a SyncError for any
// failure after that.
func (o *Orchestrator) Run(ctx context.Context, cfg domain.ScanConfig, listener ports.SyncListener) (*domain.SyncStats, error) {
	if !o.running.TryLock() {
		return nil, application.ErrSyncInProgress
	}
	defer o.running.Unlock()

	cfg = application.AbsoluteScanConfig(cfg)
	if err := application.ValidateScanConfig(cfg); err != nil {
		return nil, err
	}

	if listener == nil {
		listener = ports.SyncListenerFunc(func(float64, string) {})
	}

	r := &syncRun{
		o:   o,
		cfg: cfg,
		stats: &domain.SyncStats{
			RunID:        uuid.NewString(),
			Differential: cfg.Differential,
			Phase:        domain.PhaseInit,
		},
		progress: &progressTracker{listener: listener},
	}
	r.logger = o.logger.With(zap.String("run_id", r.stats.RunID))

	start := time.Now()
	err := r.execute(ctx)
	r.stats.Duration = time.Since(start)

	if err != nil {
		failedPhase := r.stats.Phase
		r.stats.Phase = domain.PhaseFailed
		syncErr := &application.SyncError{Phase: failedPhase, Err: err}
		r.progress.message("Plugins synchronization failed: " + err.Error())
		r.logger.Error("plugin sync failed",
			zap.String("phase", string(failedPhase)),
			zap.Error(err),
		)
		return r.stats, syncErr
	}

	return r.stats, nil
}

// syncRun holds the state of a single run
type syncRun struct {
	o        *Orchestrator
	cfg      domain.ScanConfig
	logger   *zap.Logger
	progress *progressTracker

	mu    sync.Mutex // guards stats during the plugin loop
	stats *domain.SyncStats

	nativeReady bool
}

func (r *syncRun) execute(ctx context.Context) error {
	r.logger.Info("plugin sync started",
		zap.Bool("differential", r.cfg.Differential),
		zap.String("directory_scope", r.cfg.DirectoryScope),
	)
	r.progress.set(collectProgress, "Collecting plugins...")

	if !r.cfg.Differential {
		r.stats.Phase = domain.PhaseClear
		if err := r.clear(ctx); err != nil {
			return err
		}
	}

	r.stats.Phase = domain.PhaseCollect
	candidates, err := r.o.collector.Scan(ctx, r.cfg)
	if err != nil {
		return err
	}
	files, links := candidates.PluginFiles, candidates.Symlinks

	if r.cfg.Differential {
		r.stats.Phase = domain.PhaseDiff
		pluginDiff, symlinkDiff, err := r.diff(ctx, files, links)
		if err != nil {
			return err
		}

		r.stats.Phase = domain.PhasePersistRemovals
		if err := r.applyRemovals(ctx, pluginDiff.Removed, symlinkDiff.Removed); err != nil {
			return err
		}
		files, links = pluginDiff.Added, symlinkDiff.Added
	}

	r.stats.PluginsCollected = len(files)
	r.stats.SymlinksCollected = len(links)
	r.logger.Info("plugins collected for analysis", zap.Int("count", len(files)))

	r.stats.Phase = domain.PhasePersistSymlinks
	if err := r.o.deps.Symlinks.SaveAll(ctx, links); err != nil {
		return &application.PersistenceError{Op: "save symlinks", Err: err}
	}

	r.stats.Phase = domain.PhasePluginLoop
	if err := r.syncPlugins(ctx, files); err != nil {
		return err
	}

	r.stats.Phase = domain.PhaseDone
	r.progress.set(100, "Plugins synchronized")
	r.logger.Info("plugin sync complete",
		zap.Int("synced", r.stats.PluginsSynced),
		zap.Int("native_compatible", r.stats.NativeCompatible),
		zap.Int("probe_failures", r.stats.ProbeFailures),
	)
	return nil
}

// clear deletes the rows a full sync is about to recreate: those under the
// directory scope, or everything when no scope is set
func (r *syncRun) clear(ctx context.Context) error {
	deps := r.o.deps
	scope := r.cfg.DirectoryScope

	var plugins, symlinks int64
	var err error
	if scope != "" {
		if plugins, err = deps.Plugins.DeleteByPathContaining(ctx, scope); err != nil {
			return &application.PersistenceError{Op: "clear plugins", Path: scope, Err: err}
		}
		if symlinks, err = deps.Symlinks.DeleteByPathContaining(ctx, scope); err != nil {
			return &application.PersistenceError{Op: "clear symlinks", Path: scope, Err: err}
		}
	} else {
		if plugins, err = deps.Plugins.DeleteAll(ctx); err != nil {
			return &application.PersistenceError{Op: "clear plugins", Err: err}
		}
		if symlinks, err = deps.Symlinks.DeleteAll(ctx); err != nil {
			return &application.PersistenceError{Op: "clear symlinks", Err: err}
		}
	}

	r.stats.PluginsCleared = plugins
	r.stats.SymlinksCleared = symlinks
	r.logger.Debug("previous scan cleared",
		zap.Int64("plugins", plugins),
		zap.Int64("symlinks", symlinks),
	)
	return nil
}

func (r *syncRun) diff(ctx context.Context, files []domain.PluginFile, links []domain.Symlink) (
	domain.Differential[domain.PluginFile], domain.Differential[domain.Symlink], error,
) {
	var noPlugins domain.Differential[domain.PluginFile]
	var noLinks domain.Differential[domain.Symlink]

	persistedPlugins, err := r.o.deps.Plugins.FindAll(ctx)
	if err != nil {
		return noPlugins, noLinks, &application.PersistenceError{Op: "load plugins", Err: err}
	}
	persistedLinks, err := r.o.deps.Symlinks.FindAll(ctx)
	if err != nil {
		return noPlugins, noLinks, &application.PersistenceError{Op: "load symlinks", Err: err}
	}

	pluginDiff := discovery.DiffPlugins(files, persistedPlugins)
	symlinkDiff := discovery.DiffSymlinks(links, persistedLinks)

	r.logger.Info("plugin differential",
		zap.Int("added", len(pluginDiff.Added)),
		zap.Int("removed", len(pluginDiff.Removed)),
	)
	r.logger.Info("symlink differential",
		zap.Int("added", len(symlinkDiff.Added)),
		zap.Int("removed", len(symlinkDiff.Removed)),
	)
	return pluginDiff, symlinkDiff, nil
}

// applyRemovals deletes vanished entries by exact path, so that removing
// "/a/Foo.vst3" never touches "/a/Foo.vst3.bak"
func (r *syncRun) applyRemovals(ctx context.Context, plugins, symlinks []string) error {
	for _, path := range plugins {
		if _, err := r.o.deps.Plugins.DeleteByPath(ctx, path); err != nil {
			return &application.PersistenceError{Op: "delete plugin", Path: path, Err: err}
		}
	}
	for _, path := range symlinks {
		if _, err := r.o.deps.Symlinks.DeleteByPath(ctx, path); err != nil {
			return &application.PersistenceError{Op: "delete symlink", Path: path, Err: err}
		}
	}
	r.stats.PluginsRemoved = len(plugins)
	r.stats.SymlinksRemoved = len(symlinks)
	return nil
}

func (r *syncRun) syncPlugins(ctx context.Context, files []domain.PluginFile) error {
	if len(files) == 0 {
		return nil
	}

	host := r.o.deps.NativeHost
	r.nativeReady = host != nil && host.IsEnabled() && host.LoaderAvailable()
	if host != nil && host.IsEnabled() && !r.nativeReady {
		r.logger.Warn("native discovery enabled but the plugin loader is not available")
	}

	step := loopProgress / float64(len(files))

	if r.o.concurrency <= 1 {
		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("sync cancelled: %w", err)
			}
			if err := r.syncPlugin(ctx, file); err != nil {
				return err
			}
			r.progress.advance(step)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.o.concurrency)
	for _, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("sync cancelled: %w", err)
			}
			if err := r.syncPlugin(gctx, file); err != nil {
				return err
			}
			r.progress.advance(step)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sync cancelled: %w", err)
	}
	return nil
}

// syncPlugin persists one plugin, enriching it with native metadata when
// allowed. The plugin is saved before probing so a crash mid-probe still
// leaves it in the catalog.
func (r *syncRun) syncPlugin(ctx context.Context, file domain.PluginFile) error {
	deps := r.o.deps
	plugin := file.ToPlugin()

	footprint, created, err := r.o.footprintFor(ctx, plugin.Path)
	if err != nil {
		return &application.PersistenceError{Op: "load footprint", Path: plugin.Path, Err: err}
	}
	plugin.Footprint = footprint

	if err := deps.Plugins.Save(ctx, plugin); err != nil {
		return &application.PersistenceError{Op: "save plugin", Path: plugin.Path, Err: err}
	}

	probeFailed := false
	if r.nativeReady && footprint.NativeDiscoveryEnabled && !plugin.Disabled {
		r.logger.Debug("load plugin using native discovery", zap.String("path", plugin.Path))
		r.progress.message("Exploring plugin " + plugin.Name)

		natives, err := r.loadNative(ctx, plugin.Path)
		switch {
		case err != nil && ctx.Err() != nil:
			return fmt.Errorf("sync cancelled: %w", ctx.Err())
		case err != nil:
			probeFailed = true
			probeErr := &application.NativeProbeError{Path: plugin.Path, Err: err}
			r.logger.Warn("native probe failed, keeping scanned metadata", zap.Error(probeErr))
		case len(natives) > 0:
			plugin.NativeCompatible = true
			components := make([]domain.PluginComponent, 0, len(natives))
			for _, n := range natives {
				components = append(components, domain.ComponentFromNative(n))
			}
			plugin.Components = components
			plugin.ApplyNative(natives[0])
			r.logger.Debug("native components found",
				zap.String("plugin", plugin.Name),
				zap.Int("components", len(components)),
			)
		}
	}

	plugin.SyncComplete = true
	if err := deps.Plugins.Save(ctx, plugin); err != nil {
		return &application.PersistenceError{Op: "save plugin", Path: plugin.Path, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.PluginsSynced++
	if created {
		r.stats.FootprintsCreated++
	}
	if probeFailed {
		r.stats.ProbeFailures++
	}
	if plugin.NativeCompatible {
		r.stats.NativeCompatible++
		r.stats.ComponentsCreated += len(plugin.Components)
	}
	return nil
}

func (r *syncRun) loadNative(ctx context.Context, path string) ([]domain.NativePlugin, error) {
	if r.o.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.o.probeTimeout)
		defer cancel()
	}

	natives, err := r.o.deps.NativeHost.LoadPlugin(ctx, path)
	if r.o.probeTimeout > 0 && errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("native host did not answer within %s: %w", r.o.probeTimeout, err)
	}
	return natives, err
}

// footprintFor returns the footprint for path, creating it if absent.
// Lookup and creation are serialized so a footprint is created at most once.
func (o *Orchestrator) footprintFor(ctx context.Context, path string) (*domain.PluginFootprint, bool, error) {
	o.footprintMu.Lock()
	defer o.footprintMu.Unlock()

	footprint, err := o.deps.Footprints.FindByPath(ctx, path)
	if err != nil {
		return nil, false, err
	}
	if footprint != nil {
		return footprint, false, nil
	}

	footprint = domain.NewPluginFootprint(path)
	if err := o.deps.Footprints.Create(ctx, footprint); err != nil {
		return nil, false, err
	}
	return footprint, true, nil
}
