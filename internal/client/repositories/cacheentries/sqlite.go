package cacheentries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
	"github.com/dmitrijs2005/chatkeeper/internal/timex"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, e *models.CacheEntry) error {
	query := `INSERT INTO encrypted_cache
			(cache_key, encrypted_data, created_at, accessed_at, expires_at, cache_type, size_bytes, encryption_key_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			encrypted_data = excluded.encrypted_data,
			accessed_at = excluded.accessed_at,
			expires_at = excluded.expires_at,
			cache_type = excluded.cache_type,
			size_bytes = excluded.size_bytes,
			encryption_key_id = excluded.encryption_key_id`
	_, err := r.db.ExecContext(ctx, query,
		e.Key, e.EncryptedData, timex.ToUnix(e.CreatedAt), timex.ToUnix(e.AccessedAt),
		timex.ToNullUnix(e.ExpiresAt), string(e.CacheType), e.SizeBytes, e.EncryptionKeyID)
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT cache_key, created_at, accessed_at, expires_at, cache_type,
			size_bytes, encryption_key_id, encrypted_data
		FROM encrypted_cache WHERE cache_key = ?`, key)

	var data []byte
	e, err := scanEntry(row, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	e.EncryptedData = data
	return e, nil
}

func (r *SQLiteRepository) Touch(ctx context.Context, key string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE encrypted_cache SET accessed_at = ? WHERE cache_key = ?`,
		timex.ToUnix(at), key)
	if err != nil {
		return fmt.Errorf("failed to touch cache entry: %w", err)
	}
	return nil
}

// Delete is idempotent: removing an absent key is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM encrypted_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.CacheEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cache_key, created_at, accessed_at, expires_at, cache_type,
			size_bytes, encryption_key_id
		FROM encrypted_cache ORDER BY accessed_at DESC, cache_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to select cache entries: %w", err)
	}
	defer rows.Close()

	var result []models.CacheEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM encrypted_cache WHERE expires_at IS NOT NULL AND expires_at <= ?`, timex.ToUnix(now))
	if err != nil {
		return 0, fmt.Errorf("failed to evict expired cache entries: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) DeleteBeyondSize(ctx context.Context, maxBytes int64) (int64, error) {
	query := `DELETE FROM encrypted_cache WHERE cache_key IN (
			SELECT cache_key FROM (
				SELECT cache_key,
					SUM(size_bytes) OVER (ORDER BY accessed_at DESC, cache_key ROWS UNBOUNDED PRECEDING) AS running
				FROM encrypted_cache
			) WHERE running > ?
		)`
	res, err := r.db.ExecContext(ctx, query, maxBytes)
	if err != nil {
		return 0, fmt.Errorf("failed to trim cache: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) Usage(ctx context.Context, now time.Time) (map[models.CacheType]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cache_type, SUM(size_bytes) FROM encrypted_cache
		WHERE expires_at IS NULL OR expires_at > ?
		GROUP BY cache_type`, timex.ToUnix(now))
	if err != nil {
		return nil, fmt.Errorf("failed to compute cache usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[models.CacheType]int64)
	for rows.Next() {
		var (
			tag   string
			total int64
		)
		if err := rows.Scan(&tag, &total); err != nil {
			return nil, fmt.Errorf("failed to scan cache usage: %w", err)
		}
		ct, err := models.ParseCacheType(tag)
		if err != nil {
			return nil, err
		}
		usage[ct] = total
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return usage, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEntry reads the metadata columns followed by any extra destinations.
func scanEntry(row scanner, extra ...any) (*models.CacheEntry, error) {
	var (
		e                              models.CacheEntry
		createdAt, accessedAt, expires any
		cacheType                      string
	)
	dest := append([]any{&e.Key, &createdAt, &accessedAt, &expires, &cacheType, &e.SizeBytes, &e.EncryptionKeyID}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan cache entry: %w", err)
	}

	var err error
	if e.CreatedAt, err = timex.FromUnix("created_at", createdAt); err != nil {
		return nil, err
	}
	if e.AccessedAt, err = timex.FromUnix("accessed_at", accessedAt); err != nil {
		return nil, err
	}
	if e.ExpiresAt, err = timex.FromNullUnix("expires_at", expires); err != nil {
		return nil, err
	}
	if e.CacheType, err = models.ParseCacheType(cacheType); err != nil {
		return nil, err
	}
	return &e, nil
}
