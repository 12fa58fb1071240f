// Package discovery enumerates plugin and symlink candidates from the
// configured directories and diffs them against the persisted catalog.
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"owlsync/internal/application"
	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// Candidates is everything a scan found
type Candidates struct {
	PluginFiles []domain.PluginFile
	Symlinks    []domain.Symlink

	// ScanErrors lists the directories whose probe failed and were
	// treated as empty
	ScanErrors []*application.ScanError
}

// Collector scans directories using the plugin and symlink probes
type Collector struct {
	plugins  ports.PluginFileProbe
	symlinks ports.SymlinkProbe
	logger   *zap.Logger
}

// Option configures the Collector
type Option func(*Collector)

// WithLogger sets the logger used for probe failures
func WithLogger(logger *zap.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// NewCollector creates a collector over the given probes
func NewCollector(plugins ports.PluginFileProbe, symlinks ports.SymlinkProbe, opts ...Option) *Collector {
	c := &Collector{
		plugins:  plugins,
		symlinks: symlinks,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scan collects every plugin file and symlink implied by cfg.
//
// With a directory scope, the scope is probed once per enabled format and
// once for symlinks. Otherwise each enabled format probes its primary and
// extra directories, and symlinks are collected once per distinct directory.
// Plugin files are deduplicated by path, first format wins. A failing probe
// is recorded in Candidates.ScanErrors and its directory treated as empty;
// only context cancellation makes Scan fail.
func (c *Collector) Scan(ctx context.Context, cfg domain.ScanConfig) (Candidates, error) {
	files := domain.NewOrderedSet[domain.PluginFile]()
	var result Candidates

	symlinkDirs := make(map[string]struct{})
	collectSymlinks := func(dir string) error {
		if _, done := symlinkDirs[dir]; done {
			return nil
		}
		symlinkDirs[dir] = struct{}{}

		links, err := c.probeSymlinks(ctx, dir)
		if err != nil {
			return c.handleProbeError(ctx, &result, &application.ScanError{Directory: dir, Err: err})
		}
		result.Symlinks = append(result.Symlinks, links...)
		return nil
	}

	collectPlugins := func(dir string, format domain.PluginFormat) error {
		found, err := c.probePlugins(ctx, dir, format)
		if err != nil {
			return c.handleProbeError(ctx, &result, &application.ScanError{Directory: dir, Format: format, Err: err})
		}
		files.AddAll(found)
		return nil
	}

	for _, format := range cfg.EnabledFormats() {
		dirs := cfg.Formats[format].Directories()
		if cfg.DirectoryScope != "" {
			dirs = []string{cfg.DirectoryScope}
		}

		for _, dir := range dirs {
			if err := ctx.Err(); err != nil {
				return Candidates{}, fmt.Errorf("scan interrupted: %w", err)
			}
			if err := collectPlugins(dir, format); err != nil {
				return Candidates{}, err
			}
			if err := collectSymlinks(dir); err != nil {
				return Candidates{}, err
			}
		}
	}

	result.PluginFiles = files.Items()

	c.logger.Info("scan complete",
		zap.Int("plugins", len(result.PluginFiles)),
		zap.Int("symlinks", len(result.Symlinks)),
		zap.Int("failed_directories", len(result.ScanErrors)),
	)

	return result, nil
}

// handleProbeError records a probe failure, unless it was caused by
// cancellation, in which case the scan stops
func (c *Collector) handleProbeError(ctx context.Context, result *Candidates, scanErr *application.ScanError) error {
	if ctx.Err() != nil {
		return fmt.Errorf("scan interrupted: %w", ctx.Err())
	}
	c.logger.Warn("directory probe failed, treating as empty",
		zap.String("directory", scanErr.Directory),
		zap.String("format", scanErr.Format.String()),
		zap.Error(scanErr.Err),
	)
	result.ScanErrors = append(result.ScanErrors, scanErr)
	return nil
}

// probePlugins calls the probe and turns a panic into an error so one
// misbehaving directory cannot take down the scan
func (c *Collector) probePlugins(ctx context.Context, dir string, format domain.PluginFormat) (files []domain.PluginFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panic: %v", r)
		}
	}()
	return c.plugins.CollectPluginFiles(ctx, dir, format)
}

func (c *Collector) probeSymlinks(ctx context.Context, dir string) (links []domain.Symlink, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panic: %v", r)
		}
	}()
	return c.symlinks.CollectSymlinks(ctx, dir)
}
