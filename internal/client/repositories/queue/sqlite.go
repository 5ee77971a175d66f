package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
	"github.com/dmitrijs2005/chatkeeper/internal/timex"
)

const columns = `id, conversation_id, message_content, created_at, retry_count, max_retries,
	next_retry_at, error_message, processing_state`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, e *models.QueueEntry) error {
	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		query := `INSERT INTO message_queue (` + columns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				conversation_id = excluded.conversation_id,
				message_content = excluded.message_content,
				retry_count = excluded.retry_count,
				max_retries = excluded.max_retries,
				next_retry_at = excluded.next_retry_at,
				error_message = excluded.error_message,
				processing_state = excluded.processing_state`
		_, err := tx.ExecContext(ctx, query,
			e.ID, e.ConversationID, e.Content, timex.ToUnix(e.CreatedAt), e.RetryCount, e.MaxRetries,
			timex.ToNullUnix(e.NextRetryAt), e.ErrorMessage, string(e.ProcessingState))
		if err != nil {
			return fmt.Errorf("failed to upsert queue entry: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM message_queue_attachments WHERE queue_id = ?`, e.ID); err != nil {
			return fmt.Errorf("failed to clear queued attachments: %w", err)
		}
		for _, a := range e.Attachments {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO message_queue_attachments (queue_id, file_path, mime_type, size_bytes) VALUES (?, ?, ?, ?)`,
				e.ID, a.FilePath, a.MimeType, a.SizeBytes)
			if err != nil {
				return fmt.Errorf("failed to insert queued attachment: %w", err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.QueueEntry, error) {
	entries, err := r.query(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, common.ErrorNotFound
	}
	return entries[0], nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context, now time.Time) ([]*models.QueueEntry, error) {
	return r.query(ctx,
		`WHERE retry_count < max_retries AND (next_retry_at IS NULL OR next_retry_at <= ?)`,
		timex.ToUnix(now))
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.QueueEntry, error) {
	return r.query(ctx, ``)
}

// UpdateRetry writes retry_count, next_retry_at, error_message and
// processing_state. Attachments are untouched.
func (r *SQLiteRepository) UpdateRetry(ctx context.Context, e *models.QueueEntry) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE message_queue
			SET retry_count = ?, next_retry_at = ?, error_message = ?, processing_state = ?
			WHERE id = ?`,
		e.RetryCount, timex.ToNullUnix(e.NextRetryAt), e.ErrorMessage, string(e.ProcessingState), e.ID)
	if err != nil {
		return fmt.Errorf("failed to update queue entry: %w", err)
	}
	return expectOne(res)
}

// Delete removes the entry; queued attachments cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM message_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete queue entry: %w", err)
	}
	return expectOne(res)
}

// query selects entries matching where and attaches their queued files.
func (r *SQLiteRepository) query(ctx context.Context, where string, args ...any) ([]*models.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM message_queue `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue entries: %w", err)
	}
	defer rows.Close()

	var (
		result []*models.QueueEntry
		byID   = make(map[string]*models.QueueEntry)
	)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	arows, err := r.db.QueryContext(ctx,
		`SELECT queue_id, file_path, mime_type, size_bytes FROM message_queue_attachments
		WHERE queue_id IN (SELECT id FROM message_queue `+where+`) ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select queued attachments: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var (
			queueID string
			a       models.QueuedAttachment
		)
		if err := arows.Scan(&queueID, &a.FilePath, &a.MimeType, &a.SizeBytes); err != nil {
			return nil, fmt.Errorf("failed to scan queued attachment: %w", err)
		}
		if e, ok := byID[queueID]; ok {
			e.Attachments = append(e.Attachments, a)
		}
	}
	if err := arows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanEntry(rows *sql.Rows) (*models.QueueEntry, error) {
	var (
		e                      models.QueueEntry
		createdAt, nextRetryAt any
		state                  string
	)
	err := rows.Scan(&e.ID, &e.ConversationID, &e.Content, &createdAt, &e.RetryCount, &e.MaxRetries,
		&nextRetryAt, &e.ErrorMessage, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to scan queue entry: %w", err)
	}

	if e.CreatedAt, err = timex.FromUnix("created_at", createdAt); err != nil {
		return nil, err
	}
	if e.NextRetryAt, err = timex.FromNullUnix("next_retry_at", nextRetryAt); err != nil {
		return nil, err
	}
	if e.ProcessingState, err = models.ParseProcessingState(state); err != nil {
		return nil, err
	}
	return &e, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
