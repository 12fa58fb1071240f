package ports

import (
	"context"

	"owlsync/internal/domain"
)

// PluginRepository persists plugins together with their components.
// Writes are committed when the call returns.
type PluginRepository interface {
	FindAll(ctx context.Context) ([]domain.Plugin, error)
	FindByPath(ctx context.Context, path string) (*domain.Plugin, error)

	// Save inserts or updates the plugin by path. Components are replaced
	// wholesale with plugin.Components and the plugin ID is set.
	Save(ctx context.Context, plugin *domain.Plugin) error

	// DeleteByPath deletes the plugin with exactly this path
	DeleteByPath(ctx context.Context, path string) (int64, error)
	// DeleteByPathContaining deletes every plugin whose path contains
	// substr, ignoring case
	DeleteByPathContaining(ctx context.Context, substr string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// SymlinkRepository persists symlinks found in plugin directories
type SymlinkRepository interface {
	FindAll(ctx context.Context) ([]domain.Symlink, error)
	SaveAll(ctx context.Context, symlinks []domain.Symlink) error

	DeleteByPath(ctx context.Context, path string) (int64, error)
	DeleteByPathContaining(ctx context.Context, substr string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// FootprintRepository persists per-path discovery settings
type FootprintRepository interface {
	// FindByPath returns nil, nil when no footprint exists
	FindByPath(ctx context.Context, path string) (*domain.PluginFootprint, error)
	// Create inserts a new footprint and sets its ID
	Create(ctx context.Context, footprint *domain.PluginFootprint) error
	// Update saves the settings of an existing footprint
	Update(ctx context.Context, footprint *domain.PluginFootprint) error
	DeleteByPath(ctx context.Context, path string) (int64, error)
}
