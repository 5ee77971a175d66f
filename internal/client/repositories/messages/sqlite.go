package messages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
	"github.com/dmitrijs2005/chatkeeper/internal/timex"
)

const columns = `id, conversation_id, content, role, timestamp, sync_state, metadata, processing_state`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert writes the message and replaces its attachment set in one
// transaction, joining the caller's transaction when db is one.
func (r *SQLiteRepository) Upsert(ctx context.Context, m *models.Message) error {
	var metadata any
	if len(m.Metadata) > 0 {
		b, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode message metadata: %w", err)
		}
		metadata = string(b)
	}

	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		query := `INSERT INTO messages (` + columns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				conversation_id = excluded.conversation_id,
				content = excluded.content,
				role = excluded.role,
				timestamp = excluded.timestamp,
				sync_state = excluded.sync_state,
				metadata = excluded.metadata,
				processing_state = excluded.processing_state`
		_, err := tx.ExecContext(ctx, query,
			m.ID, m.ConversationID, m.Content, string(m.Role), timex.ToUnix(m.Timestamp),
			string(m.SyncState), metadata, string(m.ProcessingState))
		if err != nil {
			return fmt.Errorf("failed to upsert message: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM message_attachments WHERE message_id = ?`, m.ID); err != nil {
			return fmt.Errorf("failed to clear message attachments: %w", err)
		}
		for _, a := range m.Attachments {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO message_attachments (message_id, file_id, filename, mime_type, size_bytes)
				VALUES (?, ?, ?, ?, ?)`,
				m.ID, a.FileID, a.Filename, a.MimeType, a.SizeBytes)
			if err != nil {
				return fmt.Errorf("failed to insert message attachment: %w", err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Message, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}

	attachments, err := r.attachments(ctx, `WHERE message_id = ?`, id)
	if err != nil {
		return nil, err
	}
	m.Attachments = attachments[m.ID]
	return m, nil
}

func (r *SQLiteRepository) ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM messages WHERE conversation_id = ? ORDER BY timestamp, rowid`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	attachments, err := r.attachments(ctx,
		`WHERE message_id IN (SELECT id FROM messages WHERE conversation_id = ?)`, conversationID)
	if err != nil {
		return nil, err
	}
	for _, m := range result {
		m.Attachments = attachments[m.ID]
	}
	return result, nil
}

// Delete removes the message; its attachments cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
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

// attachments loads attachment rows matching where, grouped by message id
// in insertion order.
func (r *SQLiteRepository) attachments(ctx context.Context, where string, args ...any) (map[string][]models.MessageAttachment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT message_id, file_id, filename, mime_type, size_bytes FROM message_attachments `+where+` ORDER BY id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select message attachments: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.MessageAttachment)
	for rows.Next() {
		var (
			messageID string
			a         models.MessageAttachment
		)
		if err := rows.Scan(&messageID, &a.FileID, &a.Filename, &a.MimeType, &a.SizeBytes); err != nil {
			return nil, fmt.Errorf("failed to scan message attachment: %w", err)
		}
		result[messageID] = append(result[messageID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (*models.Message, error) {
	var (
		m                           models.Message
		role, syncState, processing string
		timestamp                   any
		metadata                    sql.NullString
	)
	err := row.Scan(&m.ID, &m.ConversationID, &m.Content, &role, &timestamp, &syncState, &metadata, &processing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	if m.Role, err = models.ParseMessageRole(role); err != nil {
		return nil, err
	}
	if m.Timestamp, err = timex.FromUnix("timestamp", timestamp); err != nil {
		return nil, err
	}
	if m.SyncState, err = models.ParseSyncState(syncState); err != nil {
		return nil, err
	}
	if m.ProcessingState, err = models.ParseProcessingState(processing); err != nil {
		return nil, err
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &m.Metadata); err != nil {
			return nil, fmt.Errorf("%w: message %s metadata: %v", common.ErrMalformedValue, m.ID, err)
		}
	}
	return &m, nil
}
