package quickcapture

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

const columns = `id, query, response, created_at, completed_at, session_duration_ms,
	converted_to_conversation, server_id`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, s *models.QuickCaptureSession) error {
	query := `INSERT INTO quick_capture_sessions (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			query = excluded.query,
			response = excluded.response,
			completed_at = excluded.completed_at,
			session_duration_ms = excluded.session_duration_ms,
			converted_to_conversation = excluded.converted_to_conversation,
			server_id = excluded.server_id`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Query, s.Response, timex.ToUnix(s.CreatedAt), timex.ToNullUnix(s.CompletedAt),
		s.SessionDurationMS, s.ConvertedToConversation, s.ServerID)
	if err != nil {
		return fmt.Errorf("failed to upsert quick capture session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.QuickCaptureSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM quick_capture_sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	return s, err
}

func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]*models.QuickCaptureSession, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM quick_capture_sessions ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select quick capture sessions: %w", err)
	}
	defer rows.Close()

	var result []*models.QuickCaptureSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quick_capture_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quick capture session: %w", err)
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

func scanSession(row scanner) (*models.QuickCaptureSession, error) {
	var (
		s                      models.QuickCaptureSession
		createdAt, completedAt any
	)
	err := row.Scan(&s.ID, &s.Query, &s.Response, &createdAt, &completedAt, &s.SessionDurationMS,
		&s.ConvertedToConversation, &s.ServerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan quick capture session: %w", err)
	}
	if s.CreatedAt, err = timex.FromUnix("created_at", createdAt); err != nil {
		return nil, err
	}
	if s.CompletedAt, err = timex.FromNullUnix("completed_at", completedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
