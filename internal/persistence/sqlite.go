package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteBackend stores snapshot blobs and a spatial system index in a
// SQLite file.
type SQLiteBackend struct {
	conn *sqlx.DB
}

// indexedSystem is one row of the system index.
type indexedSystem struct {
	ID   string  `db:"id"`
	X    float64 `db:"x"`
	Y    float64 `db:"y"`
	Data []byte  `db:"data"`
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &SQLiteBackend{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *SQLiteBackend) Close() error {
	return db.conn.Close()
}

func (db *SQLiteBackend) Name() string { return "sqlite" }

func (db *SQLiteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS systems (
		id TEXT PRIMARY KEY,
		x REAL NOT NULL,
		y REAL NOT NULL,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_systems_xy ON systems(x, y);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Put writes a blob, replacing any previous value.
func (db *SQLiteBackend) Put(ctx context.Context, key string, data []byte) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		key, data,
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get reads a blob.
func (db *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM blobs WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// IndexSystems replaces the system index in one transaction.
func (db *SQLiteBackend) IndexSystems(ctx context.Context, systems []CompactSystem) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM systems"); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, "INSERT INTO systems (id, x, y, data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range systems {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode system %s: %w", s.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.ID, s.X, s.Y, data); err != nil {
			return fmt.Errorf("insert system %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("system index rebuilt", "systems", len(systems))
	return nil
}

// QueryBox reads indexed systems inside box.
func (db *SQLiteBackend) QueryBox(ctx context.Context, box Box) ([]CompactSystem, error) {
	var rows []indexedSystem
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT id, x, y, data FROM systems WHERE x BETWEEN ? AND ? AND y BETWEEN ? AND ?",
		box.MinX, box.MaxX, box.MinY, box.MaxY,
	)
	if err != nil {
		return nil, fmt.Errorf("query box: %w", err)
	}

	systems := make([]CompactSystem, 0, len(rows))
	for _, r := range rows {
		var s CompactSystem
		if err := json.Unmarshal(r.Data, &s); err != nil {
			return nil, fmt.Errorf("decode system %s: %w", r.ID, err)
		}
		systems = append(systems, s)
	}
	return systems, nil
}

// SaveMeta stores a key-value pair in metadata.
func (db *SQLiteBackend) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *SQLiteBackend) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}
