package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// FootprintRepository implements ports.FootprintRepository
type FootprintRepository struct {
	db *sql.DB
}

var _ ports.FootprintRepository = (*FootprintRepository)(nil)

// FindByPath returns the footprint for path, or nil
func (r *FootprintRepository) FindByPath(ctx context.Context, path string) (*domain.PluginFootprint, error) {
	var fp domain.PluginFootprint
	err := r.db.QueryRowContext(ctx, `
		SELECT id, path, native_discovery_enabled FROM plugin_footprints WHERE path = ?
	`, path).Scan(&fp.ID, &fp.Path, &fp.NativeDiscoveryEnabled)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fp, nil
}

// Create inserts the footprint. It fails if the path already has one.
func (r *FootprintRepository) Create(ctx context.Context, footprint *domain.PluginFootprint) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO plugin_footprints (path, native_discovery_enabled) VALUES (?, ?)
	`, footprint.Path, footprint.NativeDiscoveryEnabled)
	if err != nil {
		return err
	}
	footprint.ID, err = res.LastInsertId()
	return err
}

// Update saves the settings of the footprint at footprint.Path
func (r *FootprintRepository) Update(ctx context.Context, footprint *domain.PluginFootprint) error {
	n, err := rowsAffected(r.db.ExecContext(ctx, `
		UPDATE plugin_footprints SET native_discovery_enabled = ? WHERE path = ?
	`, footprint.NativeDiscoveryEnabled, footprint.Path))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("footprint %s does not exist", footprint.Path)
	}
	return nil
}

// DeleteByPath deletes the footprint for path
func (r *FootprintRepository) DeleteByPath(ctx context.Context, path string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM plugin_footprints WHERE path = ?`, path))
}
