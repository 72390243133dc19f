package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps tokens server side in SQLite, keyed by an opaque
// browser id. Only the id travels in the browser cookie.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at path, ensures the data
// directory exists, and creates the token table.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	b := &SQLiteBackend{db: db}
	if err := b.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) ensureSchema() error {
	_, err := b.db.Exec(`
CREATE TABLE IF NOT EXISTS session_tokens (
    browser_id TEXT PRIMARY KEY,
    token TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`)
	return err
}

// Close closes the underlying database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// Slot returns the token slot for browserID.
func (b *SQLiteBackend) Slot(browserID string) Slot {
	return &sqliteSlot{db: b.db, id: browserID}
}

// Prune deletes tokens not written since before cutoff.
func (b *SQLiteBackend) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := b.db.ExecContext(ctx,
		`DELETE FROM session_tokens WHERE updated_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("session: prune tokens: %w", err)
	}
	return res.RowsAffected()
}

type sqliteSlot struct {
	db *sql.DB
	id string
}

func (s *sqliteSlot) Load(ctx context.Context) (string, bool, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM session_tokens WHERE browser_id = ?`, s.id).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session: load token: %w", err)
	}
	return token, true, nil
}

func (s *sqliteSlot) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO session_tokens (browser_id, token, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(browser_id) DO UPDATE SET
    token = excluded.token,
    updated_at = excluded.updated_at`,
		s.id, token, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("session: save token: %w", err)
	}
	return nil
}

func (s *sqliteSlot) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_tokens WHERE browser_id = ?`, s.id); err != nil {
		return fmt.Errorf("session: delete token: %w", err)
	}
	return nil
}
