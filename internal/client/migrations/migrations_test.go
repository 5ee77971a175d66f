package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
	"github.com/stretchr/testify/require"
)

func TestUp_CreatesSchemaAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := dbx.OpenSQLite(ctx, filepath.Join(t.TempDir(), "client.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Up(ctx, db))
	require.NoError(t, Up(ctx, db))

	v, err := Version(ctx, db)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	for _, table := range []string{
		"server_configurations", "conversations", "messages", "message_attachments",
		"encrypted_cache", "message_queue", "message_queue_attachments",
		"user_preferences", "dropped_files", "quick_capture_sessions",
	} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestUp_SingleActiveServer(t *testing.T) {
	ctx := context.Background()
	db, err := dbx.OpenSQLite(ctx, filepath.Join(t.TempDir(), "client.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Up(ctx, db))

	insert := `INSERT INTO server_configurations
		(id, name, base_url, auth_type, is_active, connection_status, api_version, created_at)
		VALUES (?, 'n', 'https://x', 'jwt', ?, 'disconnected', 'v1', 0)`
	_, err = db.ExecContext(ctx, insert, "a", 1)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "b", 0)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "c", 1)
	require.Error(t, err)
}
