package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultMaxOpenConns bounds the shared connection pool.
const DefaultMaxOpenConns = 5

// SQLiteDSN builds a modernc.org/sqlite DSN for path. The pragmas are applied
// on every new pooled connection: WAL journal, enforced foreign keys,
// incremental auto-vacuum and a busy timeout. Transactions take the write
// lock up front so concurrent writers queue instead of failing on upgrade.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "auto_vacuum(INCREMENTAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// OpenSQLite opens (creating if needed) the database file at path and
// verifies the connection. maxOpen <= 0 falls back to DefaultMaxOpenConns.
func OpenSQLite(ctx context.Context, path string, maxOpen int) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}

	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
