// Package sqlite persists the plugin catalog in a SQLite database
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Store owns the database connection shared by the repositories
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (and creates if needed) the catalog database at dbPath.
// An empty path selects DefaultDatabasePath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultDatabasePath()
	}
	dbPath, err := expandHome(dbPath)
	if err != nil {
		return nil, err
	}

	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: writes are serialized and :memory: stays a single database
	db.SetMaxOpenConns(1)

	// Pragmas + schema in single batch
	_, err = db.ExecContext(ctx, `
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS plugin_footprints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			native_discovery_enabled INTEGER NOT NULL DEFAULT 1
		);
		CREATE TABLE IF NOT EXISTS plugins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			format TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			descriptive_name TEXT NOT NULL DEFAULT '',
			version TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			manufacturer_name TEXT NOT NULL DEFAULT '',
			identifier TEXT NOT NULL DEFAULT '',
			uid TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'unknown',
			bundle INTEGER NOT NULL DEFAULT 0,
			disabled INTEGER NOT NULL DEFAULT 0,
			native_compatible INTEGER NOT NULL DEFAULT 0,
			sync_complete INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS plugin_components (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plugin_id INTEGER NOT NULL REFERENCES plugins(id) ON DELETE CASCADE,
			name TEXT NOT NULL DEFAULT '',
			descriptive_name TEXT NOT NULL DEFAULT '',
			version TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			manufacturer_name TEXT NOT NULL DEFAULT '',
			identifier TEXT NOT NULL DEFAULT '',
			uid TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'unknown'
		);
		CREATE TABLE IF NOT EXISTS symlinks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			target_path TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_components_plugin ON plugin_components(plugin_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.dbPath
}

// Plugins returns the plugin repository
func (s *Store) Plugins() *PluginRepository {
	return &PluginRepository{db: s.db}
}

// Symlinks returns the symlink repository
func (s *Store) Symlinks() *SymlinkRepository {
	return &SymlinkRepository{db: s.db}
}

// Footprints returns the footprint repository
func (s *Store) Footprints() *FootprintRepository {
	return &FootprintRepository{db: s.db}
}

// DefaultDatabasePath returns the catalog location under the XDG data directory
func DefaultDatabasePath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "owlsync", "catalog.db")
}

func expandHome(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// withTx runs fn in a transaction, committing on success
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
