package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
	"github.com/dmitrijs2005/chatkeeper/internal/timex"
)

// PreviewLength caps last_message_preview, in characters.
const PreviewLength = 100

const columns = `id, title, created_at, updated_at, is_pinned, is_starred, server_id,
	sync_state, cache_policy, message_count, last_message_preview`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or updates a conversation by id. created_at is never
// overwritten and updated_at only moves forward.
func (r *SQLiteRepository) Upsert(ctx context.Context, c *models.Conversation) error {
	query := `INSERT INTO conversations (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = MAX(conversations.updated_at, excluded.updated_at),
			is_pinned = excluded.is_pinned,
			is_starred = excluded.is_starred,
			server_id = excluded.server_id,
			sync_state = excluded.sync_state,
			cache_policy = excluded.cache_policy,
			message_count = excluded.message_count,
			last_message_preview = excluded.last_message_preview`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Title, timex.ToUnix(c.CreatedAt), timex.ToUnix(c.UpdatedAt),
		c.IsPinned, c.IsStarred, c.ServerID, string(c.SyncState), string(c.CachePolicy),
		c.MessageCount, c.LastMessagePreview)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM conversations WHERE id = ?`, id)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	return c, err
}

// List returns conversations newest first. limit <= 0 means no limit.
func (r *SQLiteRepository) List(ctx context.Context, limit, offset int) ([]*models.Conversation, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM conversations ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select conversations: %w", err)
	}
	defer rows.Close()

	var result []*models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// RefreshStats derives the cached counters from the message rows. The
// preview is the first PreviewLength characters of the latest message.
func (r *SQLiteRepository) RefreshStats(ctx context.Context, id string) error {
	query := `UPDATE conversations SET
			message_count = (SELECT COUNT(*) FROM messages WHERE conversation_id = ?1),
			last_message_preview = (
				SELECT substr(content, 1, ?2) FROM messages
				WHERE conversation_id = ?1
				ORDER BY timestamp DESC, rowid DESC LIMIT 1
			)
		WHERE id = ?1`
	res, err := r.db.ExecContext(ctx, query, id, PreviewLength)
	if err != nil {
		return fmt.Errorf("failed to refresh conversation stats: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(row scanner) (*models.Conversation, error) {
	var (
		c                    models.Conversation
		createdAt, updatedAt any
		syncState, policy    string
	)
	err := row.Scan(&c.ID, &c.Title, &createdAt, &updatedAt, &c.IsPinned, &c.IsStarred,
		&c.ServerID, &syncState, &policy, &c.MessageCount, &c.LastMessagePreview)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	if c.CreatedAt, err = timex.FromUnix("created_at", createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = timex.FromUnix("updated_at", updatedAt); err != nil {
		return nil, err
	}
	if c.SyncState, err = models.ParseSyncState(syncState); err != nil {
		return nil, err
	}
	if c.CachePolicy, err = models.ParseCachePolicy(policy); err != nil {
		return nil, err
	}
	return &c, nil
}
