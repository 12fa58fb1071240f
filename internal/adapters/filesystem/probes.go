// Package filesystem detects plugin files and symlinks in plugin directories
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// PluginFileCollector implements ports.PluginFileProbe by walking directories
type PluginFileCollector struct {
	platform domain.Platform
	logger   *zap.Logger
}

var _ ports.PluginFileProbe = (*PluginFileCollector)(nil)

// NewPluginFileCollector creates a collector for the given platform
func NewPluginFileCollector(platform domain.Platform, logger *zap.Logger) *PluginFileCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginFileCollector{platform: platform, logger: logger}
}

// CollectPluginFiles returns every plugin of format under directory in
// walk order. Bundles are reported but not descended into. A missing
// directory yields an empty result; unreadable subdirectories are skipped.
func (c *PluginFileCollector) CollectPluginFiles(ctx context.Context, directory string, format domain.PluginFormat) ([]domain.PluginFile, error) {
	rules := rulesFor(c.platform, format)
	if len(rules) == 0 {
		return nil, nil
	}

	root, ok := resolveRoot(c.logger, directory)
	if !ok {
		return nil, nil
	}

	var files []domain.PluginFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		isDir := d.IsDir()
		if d.Type()&fs.ModeSymlink != 0 {
			// a linked plugin counts as the kind of entry it points to
			info, statErr := os.Stat(path)
			if statErr != nil {
				return nil
			}
			isDir = info.IsDir()
		}

		if !match(rules, d.Name(), isDir) {
			if d.IsDir() && isBundle(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		files = append(files, domain.PluginFile{
			Path:   path,
			Format: format,
			Bundle: isDir,
		})
		if d.IsDir() {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return files, nil
}

// SymlinkCollector implements ports.SymlinkProbe
type SymlinkCollector struct {
	logger *zap.Logger
}

var _ ports.SymlinkProbe = (*SymlinkCollector)(nil)

// NewSymlinkCollector creates a symlink collector
func NewSymlinkCollector(logger *zap.Logger) *SymlinkCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SymlinkCollector{logger: logger}
}

// CollectSymlinks returns every symlink under directory with its target.
// Links are recorded, never followed.
func (c *SymlinkCollector) CollectSymlinks(ctx context.Context, directory string) ([]domain.Symlink, error) {
	root, ok := resolveRoot(c.logger, directory)
	if !ok {
		return nil, nil
	}

	var links []domain.Symlink
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		target, err := os.Readlink(path)
		if err != nil {
			c.logger.Debug("cannot read symlink", zap.String("path", path), zap.Error(err))
			return nil
		}
		links = append(links, domain.Symlink{Path: path, TargetPath: target})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return links, nil
}

// resolveRoot expands ~, makes directory absolute and checks that it
// exists. It returns the path to walk, so reported paths are absolute.
func resolveRoot(logger *zap.Logger, directory string) (string, bool) {
	root := ExpandHome(directory)
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	info, err := os.Stat(root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("cannot access plugin directory", zap.String("directory", root), zap.Error(err))
		}
		return "", false
	}
	if !info.IsDir() {
		return "", false
	}
	// WalkDir does not follow a symlinked root unless it ends with a separator
	if linfo, err := os.Lstat(root); err == nil && linfo.Mode()&fs.ModeSymlink != 0 {
		root += string(filepath.Separator)
	}
	return root, true
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
