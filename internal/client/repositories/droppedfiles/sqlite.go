package droppedfiles

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

const columns = `id, conversation_id, original_name, file_path, mime_type, size_bytes, checksum,
	upload_status, server_file_id, dropped_at, processed_at, error_message`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, f *models.DroppedFile) error {
	query := `INSERT INTO dropped_files (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			conversation_id = excluded.conversation_id,
			original_name = excluded.original_name,
			file_path = excluded.file_path,
			mime_type = excluded.mime_type,
			size_bytes = excluded.size_bytes,
			checksum = excluded.checksum,
			upload_status = excluded.upload_status,
			server_file_id = excluded.server_file_id,
			processed_at = excluded.processed_at,
			error_message = excluded.error_message`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.ConversationID, f.OriginalName, f.FilePath, f.MimeType, f.SizeBytes, f.Checksum,
		string(f.UploadStatus), f.ServerFileID, timex.ToUnix(f.DroppedAt), timex.ToNullUnix(f.ProcessedAt),
		f.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to upsert dropped file: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.DroppedFile, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM dropped_files WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	return f, err
}

func (r *SQLiteRepository) List(ctx context.Context, status *models.UploadStatus) ([]*models.DroppedFile, error) {
	query := `SELECT ` + columns + ` FROM dropped_files`
	var args []any
	if status != nil {
		query += ` WHERE upload_status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY dropped_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select dropped files: %w", err)
	}
	defer rows.Close()

	var result []*models.DroppedFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dropped_files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dropped file: %w", err)
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

func scanFile(row scanner) (*models.DroppedFile, error) {
	var (
		f                      models.DroppedFile
		status                 string
		droppedAt, processedAt any
	)
	err := row.Scan(&f.ID, &f.ConversationID, &f.OriginalName, &f.FilePath, &f.MimeType, &f.SizeBytes,
		&f.Checksum, &status, &f.ServerFileID, &droppedAt, &processedAt, &f.ErrorMessage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan dropped file: %w", err)
	}

	if f.UploadStatus, err = models.ParseUploadStatus(status); err != nil {
		return nil, err
	}
	if f.DroppedAt, err = timex.FromUnix("dropped_at", droppedAt); err != nil {
		return nil, err
	}
	if f.ProcessedAt, err = timex.FromNullUnix("processed_at", processedAt); err != nil {
		return nil, err
	}
	return &f, nil
}
