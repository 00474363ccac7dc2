package planstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores keys in a single kv table. A deleted key is a row
// with a NULL value.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at path
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	dsn := path + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open plan store db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteBackend{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB,
		rev        INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init plan store schema: %w", err)
	}
	return nil
}

// Get implements Backend
func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, int64, error) {
	var value []byte
	var rev int64
	var deleted bool
	err := s.db.QueryRowContext(ctx, `SELECT value, rev, value IS NULL FROM kv WHERE key = ?`, key).Scan(&value, &rev, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", key, err)
	}
	if deleted {
		return nil, rev, ErrNotFound
	}
	return value, rev, nil
}

// Put implements Backend
func (s *SQLiteBackend) Put(ctx context.Context, key string, value []byte, expectedRev int64) (int64, error) {
	now := time.Now().UTC().Unix()
	next := expectedRev + 1

	var res sql.Result
	var err error
	if expectedRev == 0 {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO kv (key, value, rev, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(key) DO NOTHING`,
			key, value, next, now)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE kv SET value = ?, rev = ?, updated_at = ? WHERE key = ? AND rev = ?`,
			value, next, now, key, expectedRev)
	}
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	if n == 0 {
		return 0, ErrConflict
	}
	return next, nil
}

// Delete implements Backend
func (s *SQLiteBackend) Delete(ctx context.Context, key string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", key, err)
	}
	defer tx.Rollback()

	var rev int64
	var deleted bool
	err = tx.QueryRowContext(ctx, `SELECT rev, value IS NULL FROM kv WHERE key = ?`, key).Scan(&rev, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", key, err)
	}
	if deleted {
		return rev, nil
	}

	rev++
	if _, err := tx.ExecContext(ctx,
		`UPDATE kv SET value = NULL, rev = ?, updated_at = ? WHERE key = ?`,
		rev, time.Now().UTC().Unix(), key); err != nil {
		return 0, fmt.Errorf("delete %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("delete %s: %w", key, err)
	}
	return rev, nil
}

// Close implements Backend
func (s *SQLiteBackend) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
