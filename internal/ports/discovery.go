package ports

import (
	"context"

	"owlsync/internal/domain"
)

// PluginFileProbe detects plugin files of one format under a directory.
// A missing or unreadable directory yields an empty result, not an error.
type PluginFileProbe interface {
	CollectPluginFiles(ctx context.Context, directory string, format domain.PluginFormat) ([]domain.PluginFile, error)
}

// SymlinkProbe lists symlinks under a directory
type SymlinkProbe interface {
	CollectSymlinks(ctx context.Context, directory string) ([]domain.Symlink, error)
}
