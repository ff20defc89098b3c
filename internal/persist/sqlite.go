package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps the document as a single row of a SQLite database,
// with backups in a side table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLiteBackend opens (creating if needed) the database at path.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	// One connection serializes writers; the engine saves from one goroutine
	// at a time anyway.
	db.SetMaxOpenConns(1)
	if err := migrateSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteBackend{
		db:   db,
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func migrateSQLiteSchema(db *sql.DB) error {
	statements := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS workspace_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS workspace_state_backups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("state database migration failed: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteBackend) Path() string { return s.path }

func (s *SQLiteBackend) Read(ctx context.Context) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM workspace_state WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query workspace state: %w", err)
	}
	return []byte(data), nil
}

func (s *SQLiteBackend) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO workspace_state (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), s.now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert workspace state: %w", err)
	}
	return nil
}

// Backup copies the current row into the backups table.
func (s *SQLiteBackend) Backup(ctx context.Context) (string, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO workspace_state_backups (data, created_at)
		SELECT data, ? FROM workspace_state WHERE id = 1`, s.now().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert backup: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return "", ErrNotFound
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("backup id: %w", err)
	}
	return "backup-" + strconv.FormatInt(id, 10), nil
}

// PruneBackups keeps only the keep newest backups.
func (s *SQLiteBackend) PruneBackups(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.Exec(`DELETE FROM workspace_state_backups WHERE id NOT IN (
		SELECT id FROM workspace_state_backups ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune backups: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

func (s *SQLiteBackend) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
