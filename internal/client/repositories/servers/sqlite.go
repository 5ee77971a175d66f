package servers

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

const columns = `id, name, base_url, auth_type, auth_token, refresh_token, token_expires_at,
	is_active, is_secure, last_connected, connection_status, api_version, created_at`

// SQLiteRepository implements Repository over a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or replaces every mutable column of the configuration.
// created_at is kept from the first insert.
func (r *SQLiteRepository) Upsert(ctx context.Context, s *models.ServerConfiguration) error {
	query := `INSERT INTO server_configurations (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			base_url = excluded.base_url,
			auth_type = excluded.auth_type,
			auth_token = excluded.auth_token,
			refresh_token = excluded.refresh_token,
			token_expires_at = excluded.token_expires_at,
			is_active = excluded.is_active,
			is_secure = excluded.is_secure,
			last_connected = excluded.last_connected,
			connection_status = excluded.connection_status,
			api_version = excluded.api_version`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.BaseURL, string(s.AuthType), s.AuthToken, s.RefreshToken,
		timex.ToNullUnix(s.TokenExpiresAt), s.IsActive, s.IsSecure,
		timex.ToNullUnix(s.LastConnected), string(s.ConnectionStatus), s.APIVersion,
		timex.ToUnix(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert server configuration: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.ServerConfiguration, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM server_configurations WHERE id = ?`, id)
	s, err := scanServer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	return s, err
}

func (r *SQLiteRepository) GetActive(ctx context.Context) (*models.ServerConfiguration, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM server_configurations WHERE is_active = 1`)
	s, err := scanServer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	return s, err
}

// List returns all configurations ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]*models.ServerConfiguration, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM server_configurations ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select server configurations: %w", err)
	}
	defer rows.Close()

	var result []*models.ServerConfiguration
	for rows.Next() {
		s, err := scanServer(rows)
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

func (r *SQLiteRepository) SetActive(ctx context.Context, id string) error {
	return dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `UPDATE server_configurations SET is_active = 0 WHERE is_active = 1`); err != nil {
			return fmt.Errorf("failed to deactivate servers: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE server_configurations SET is_active = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to activate server: %w", err)
		}
		return expectOne(res)
	})
}

func (r *SQLiteRepository) UpdateTokens(ctx context.Context, id string, access, refresh *string, expiresAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE server_configurations SET auth_token = ?, refresh_token = ?, token_expires_at = ? WHERE id = ?`,
		access, refresh, timex.ToNullUnix(expiresAt), id)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}
	return expectOne(res)
}

// UpdateConnectionStatus sets the status; a nil lastConnected keeps the
// previously recorded connection time.
func (r *SQLiteRepository) UpdateConnectionStatus(ctx context.Context, id string, status models.ConnectionStatus, lastConnected *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE server_configurations
			SET connection_status = ?, last_connected = COALESCE(?, last_connected)
			WHERE id = ?`,
		string(status), timex.ToNullUnix(lastConnected), id)
	if err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}
	return expectOne(res)
}

// Delete removes the configuration; its conversations cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM server_configurations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete server configuration: %w", err)
	}
	return expectOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanServer(row scanner) (*models.ServerConfiguration, error) {
	var (
		s                                        models.ServerConfiguration
		authType, status                         string
		tokenExpiresAt, lastConnected, createdAt any
	)
	err := row.Scan(&s.ID, &s.Name, &s.BaseURL, &authType, &s.AuthToken, &s.RefreshToken,
		&tokenExpiresAt, &s.IsActive, &s.IsSecure, &lastConnected, &status, &s.APIVersion, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan server configuration: %w", err)
	}

	if s.AuthType, err = models.ParseAuthType(authType); err != nil {
		return nil, err
	}
	if s.ConnectionStatus, err = models.ParseConnectionStatus(status); err != nil {
		return nil, err
	}
	if s.TokenExpiresAt, err = timex.FromNullUnix("token_expires_at", tokenExpiresAt); err != nil {
		return nil, err
	}
	if s.LastConnected, err = timex.FromNullUnix("last_connected", lastConnected); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = timex.FromUnix("created_at", createdAt); err != nil {
		return nil, err
	}
	return &s, nil
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
