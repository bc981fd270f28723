// Package hashcache persists content hashes keyed by file identity so
// repeated dedup passes skip re-hashing unchanged files.
//
// The cache is strictly an accelerator: a lookup miss or any database error
// degrades to re-hashing and never fails the dedup pass.
package hashcache

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

const schema = `
CREATE TABLE IF NOT EXISTS content_hashes (
    path      TEXT    NOT NULL PRIMARY KEY,
    size      INTEGER NOT NULL,
    mtime_ns  INTEGER NOT NULL,
    sha256    TEXT    NOT NULL,
    updated_at TEXT   NOT NULL
);
`

// Store manages hash persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the cache database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Lookup returns the cached digest for a file when its recorded size and
// mtime still match the values observed now.
func (s *Store) Lookup(ctx context.Context, path string, size, mtimeNS int64) (string, bool, error) {
	if s == nil {
		return "", false, nil
	}
	var digest string
	err := s.db.QueryRowContext(ctx,
		`SELECT sha256 FROM content_hashes WHERE path = ? AND size = ? AND mtime_ns = ?`,
		path, size, mtimeNS,
	).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup hash: %w", err)
	}
	return digest, true, nil
}

// Save upserts the digest for a file identity.
func (s *Store) Save(ctx context.Context, path string, size, mtimeNS int64, digest string) error {
	if s == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO content_hashes (path, size, mtime_ns, sha256, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             size = excluded.size,
             mtime_ns = excluded.mtime_ns,
             sha256 = excluded.sha256,
             updated_at = excluded.updated_at`,
		path, size, mtimeNS, digest, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save hash: %w", err)
	}
	return nil
}
