// Package repotest opens migrated throwaway databases for repository tests.
package repotest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/chatkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
	"github.com/stretchr/testify/require"
)

// OpenDB returns a migrated SQLite database in a temp dir, closed on cleanup.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := dbx.OpenSQLite(ctx, filepath.Join(t.TempDir(), "client.db"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(ctx, db))
	return db
}

// SeedServer inserts a minimal inactive server configuration.
func SeedServer(t testing.TB, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO server_configurations
		(id, name, base_url, auth_type, connection_status, api_version, created_at)
		VALUES (?, ?, 'https://chat.example.com', 'jwt', 'disconnected', 'v1', 0)`, id, id)
	require.NoError(t, err)
}

// SeedConversation inserts a conversation (and its server when missing).
func SeedConversation(t testing.TB, db *sql.DB, id, serverID string) {
	t.Helper()
	_, err := db.Exec(`INSERT OR IGNORE INTO server_configurations
		(id, name, base_url, auth_type, connection_status, api_version, created_at)
		VALUES (?, ?, 'https://chat.example.com', 'jwt', 'disconnected', 'v1', 0)`, serverID, serverID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO conversations
		(id, title, created_at, updated_at, server_id, sync_state, cache_policy)
		VALUES (?, ?, 0, 0, ?, 'local', 'balanced')`, id, id, serverID)
	require.NoError(t, err)
}
