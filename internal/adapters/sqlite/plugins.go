package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// PluginRepository implements ports.PluginRepository
type PluginRepository struct {
	db *sql.DB
}

var _ ports.PluginRepository = (*PluginRepository)(nil)

const pluginColumns = `
	p.id, p.path, p.format, p.name, p.descriptive_name, p.version, p.category,
	p.manufacturer_name, p.identifier, p.uid, p.type, p.bundle, p.disabled,
	p.native_compatible, p.sync_complete,
	f.id, f.native_discovery_enabled`

// FindAll returns every plugin with its components and footprint
func (r *PluginRepository) FindAll(ctx context.Context) ([]domain.Plugin, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+pluginColumns+`
		FROM plugins p
		LEFT JOIN plugin_footprints f ON f.path = p.path
		ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plugins []domain.Plugin
	index := make(map[int64]int)
	for rows.Next() {
		p, err := scanPlugin(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(plugins)
		plugins = append(plugins, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	components, err := r.components(ctx, `SELECT`+componentColumns+` FROM plugin_components ORDER BY plugin_id, id`)
	if err != nil {
		return nil, err
	}
	for _, c := range components {
		if i, ok := index[c.PluginID]; ok {
			plugins[i].Components = append(plugins[i].Components, c)
		}
	}

	return plugins, nil
}

// FindByPath returns the plugin with exactly this path, or nil
func (r *PluginRepository) FindByPath(ctx context.Context, path string) (*domain.Plugin, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+pluginColumns+`
		FROM plugins p
		LEFT JOIN plugin_footprints f ON f.path = p.path
		WHERE p.path = ?`, path)

	p, err := scanPlugin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Components, err = r.components(ctx,
		`SELECT`+componentColumns+` FROM plugin_components WHERE plugin_id = ? ORDER BY id`, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Save upserts the plugin by path and replaces its components
func (r *PluginRepository) Save(ctx context.Context, plugin *domain.Plugin) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO plugins (
				path, format, name, descriptive_name, version, category,
				manufacturer_name, identifier, uid, type, bundle, disabled,
				native_compatible, sync_complete
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				format = excluded.format,
				name = excluded.name,
				descriptive_name = excluded.descriptive_name,
				version = excluded.version,
				category = excluded.category,
				manufacturer_name = excluded.manufacturer_name,
				identifier = excluded.identifier,
				uid = excluded.uid,
				type = excluded.type,
				bundle = excluded.bundle,
				disabled = excluded.disabled,
				native_compatible = excluded.native_compatible,
				sync_complete = excluded.sync_complete
			RETURNING id`,
			plugin.Path, string(plugin.Format), plugin.Name, plugin.DescriptiveName,
			plugin.Version, plugin.Category, plugin.ManufacturerName, plugin.Identifier,
			plugin.UID, string(pluginType(plugin.Type)), plugin.Bundle, plugin.Disabled,
			plugin.NativeCompatible, plugin.SyncComplete,
		).Scan(&id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM plugin_components WHERE plugin_id = ?`, id); err != nil {
			return err
		}

		for i := range plugin.Components {
			c := &plugin.Components[i]
			res, err := tx.ExecContext(ctx, `
				INSERT INTO plugin_components (
					plugin_id, name, descriptive_name, version, category,
					manufacturer_name, identifier, uid, type
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, c.Name, c.DescriptiveName, c.Version, c.Category,
				c.ManufacturerName, c.Identifier, c.UID, string(pluginType(c.Type)),
			)
			if err != nil {
				return err
			}
			if c.ID, err = res.LastInsertId(); err != nil {
				return err
			}
			c.PluginID = id
		}

		plugin.ID = id
		return nil
	})
}

// DeleteByPath deletes the plugin with exactly this path. Components
// cascade; the footprint is kept.
func (r *PluginRepository) DeleteByPath(ctx context.Context, path string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM plugins WHERE path = ?`, path))
}

// DeleteByPathContaining deletes plugins whose path contains substr, ignoring case
func (r *PluginRepository) DeleteByPathContaining(ctx context.Context, substr string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx,
		`DELETE FROM plugins WHERE instr(lower(path), lower(?)) > 0`, substr))
}

// DeleteAll deletes every plugin
func (r *PluginRepository) DeleteAll(ctx context.Context) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM plugins`))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlugin(row rowScanner) (*domain.Plugin, error) {
	var (
		p           domain.Plugin
		format      string
		typ         string
		footprintID sql.NullInt64
		nativeOn    sql.NullBool
	)
	err := row.Scan(
		&p.ID, &p.Path, &format, &p.Name, &p.DescriptiveName, &p.Version, &p.Category,
		&p.ManufacturerName, &p.Identifier, &p.UID, &typ, &p.Bundle, &p.Disabled,
		&p.NativeCompatible, &p.SyncComplete,
		&footprintID, &nativeOn,
	)
	if err != nil {
		return nil, err
	}

	p.Format = domain.PluginFormat(format)
	p.Type = domain.PluginType(typ)
	if footprintID.Valid {
		p.Footprint = &domain.PluginFootprint{
			ID:                     footprintID.Int64,
			Path:                   p.Path,
			NativeDiscoveryEnabled: nativeOn.Bool,
		}
	}
	return &p, nil
}

const componentColumns = `
	id, plugin_id, name, descriptive_name, version, category,
	manufacturer_name, identifier, uid, type`

func (r *PluginRepository) components(ctx context.Context, query string, args ...any) ([]domain.PluginComponent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PluginComponent
	for rows.Next() {
		var c domain.PluginComponent
		var typ string
		if err := rows.Scan(
			&c.ID, &c.PluginID, &c.Name, &c.DescriptiveName, &c.Version, &c.Category,
			&c.ManufacturerName, &c.Identifier, &c.UID, &typ,
		); err != nil {
			return nil, err
		}
		c.Type = domain.PluginType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

func pluginType(t domain.PluginType) domain.PluginType {
	if t == "" {
		return domain.PluginTypeUnknown
	}
	return t
}
