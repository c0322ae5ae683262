// Package manifest records downloaded assets in a SQLite ledger so that later
// runs can tell which URL produced a file on disk.
package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one downloaded asset.
type Entry struct {
	LocalPath string
	URL       string
	Size      int64
	SHA256    string
	FetchedAt time.Time
}

// Ledger is safe for concurrent use.
type Ledger struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the ledger at path. ":memory:" is accepted.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS downloads (
		local_path TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		sha256 TEXT NOT NULL DEFAULT '',
		fetched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_downloads_url ON downloads(url);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Record stores or replaces the entry for e.LocalPath.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO downloads (local_path, url, size, sha256, fetched_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.LocalPath, e.URL, e.Size, e.SHA256, e.FetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("record %s: %w", e.LocalPath, err)
	}
	return nil
}

// Lookup returns the entry for localPath. ok is false when none exists.
func (l *Ledger) Lookup(ctx context.Context, localPath string) (Entry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		e       Entry
		fetched int64
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT local_path, url, size, sha256, fetched_at FROM downloads WHERE local_path = ?
	`, localPath).Scan(&e.LocalPath, &e.URL, &e.Size, &e.SHA256, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup %s: %w", localPath, err)
	}
	e.FetchedAt = time.Unix(fetched, 0)
	return e, true, nil
}

// ByURL returns every file downloaded from url.
func (l *Ledger) ByURL(ctx context.Context, url string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.QueryContext(ctx, `
		SELECT local_path, url, size, sha256, fetched_at FROM downloads WHERE url = ? ORDER BY local_path
	`, url)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", url, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			fetched int64
		)
		if err := rows.Scan(&e.LocalPath, &e.URL, &e.Size, &e.SHA256, &fetched); err != nil {
			return nil, err
		}
		e.FetchedAt = time.Unix(fetched, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
