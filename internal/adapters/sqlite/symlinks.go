package sqlite

import (
	"context"
	"database/sql"

	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// SymlinkRepository implements ports.SymlinkRepository
type SymlinkRepository struct {
	db *sql.DB
}

var _ ports.SymlinkRepository = (*SymlinkRepository)(nil)

// FindAll returns every symlink in insertion order
func (r *SymlinkRepository) FindAll(ctx context.Context) ([]domain.Symlink, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, path, target_path FROM symlinks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.Symlink
	for rows.Next() {
		var l domain.Symlink
		if err := rows.Scan(&l.ID, &l.Path, &l.TargetPath); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// SaveAll upserts the symlinks by path in one transaction
func (r *SymlinkRepository) SaveAll(ctx context.Context, symlinks []domain.Symlink) error {
	if len(symlinks) == 0 {
		return nil
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO symlinks (path, target_path) VALUES (?, ?)
			ON CONFLICT(path) DO UPDATE SET target_path = excluded.target_path`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, l := range symlinks {
			if _, err := stmt.ExecContext(ctx, l.Path, l.TargetPath); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteByPath deletes the symlink with exactly this path
func (r *SymlinkRepository) DeleteByPath(ctx context.Context, path string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM symlinks WHERE path = ?`, path))
}

// DeleteByPathContaining deletes symlinks whose path contains substr, ignoring case
func (r *SymlinkRepository) DeleteByPathContaining(ctx context.Context, substr string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx,
		`DELETE FROM symlinks WHERE instr(lower(path), lower(?)) > 0`, substr))
}

// DeleteAll deletes every symlink
func (r *SymlinkRepository) DeleteAll(ctx context.Context) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM symlinks`))
}
