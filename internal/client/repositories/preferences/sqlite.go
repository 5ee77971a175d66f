package preferences

import (
	"context"
	"database/sql"
	"encoding/json"
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

func (r *SQLiteRepository) Load(ctx context.Context, userID string) (*models.UserPreferences, error) {
	query := `SELECT user_id, global_hotkey, cache_policy, theme, window_settings, notification_settings,
			quick_capture_enabled, system_tray_enabled, auto_start, analytics_enabled, created_at, updated_at
		FROM user_preferences WHERE user_id = ?`

	var (
		p                    models.UserPreferences
		policy, theme        string
		window, notification string
		createdAt, updatedAt any
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.GlobalHotkey, &policy, &theme,
		&window, &notification, &p.QuickCaptureEnabled, &p.SystemTrayEnabled, &p.AutoStart,
		&p.AnalyticsEnabled, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	// Preferences are user-editable settings; a stale tag must not lock the
	// user out of the client.
	if p.CachePolicy, err = models.ParseCachePolicy(policy); err != nil {
		p.CachePolicy = models.CachePolicyBalanced
	}
	if p.Theme, err = models.ParseTheme(theme); err != nil {
		p.Theme = models.ThemeSystem
	}

	if err := json.Unmarshal([]byte(window), &p.WindowSettings); err != nil {
		return nil, fmt.Errorf("%w: window_settings: %v", common.ErrMalformedValue, err)
	}
	if err := json.Unmarshal([]byte(notification), &p.NotificationSettings); err != nil {
		return nil, fmt.Errorf("%w: notification_settings: %v", common.ErrMalformedValue, err)
	}
	if p.CreatedAt, err = timex.FromUnix("created_at", createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = timex.FromUnix("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save upserts the full preference row; created_at is kept from the first save.
func (r *SQLiteRepository) Save(ctx context.Context, p *models.UserPreferences) error {
	window, err := json.Marshal(p.WindowSettings)
	if err != nil {
		return fmt.Errorf("failed to encode window settings: %w", err)
	}
	notification, err := json.Marshal(p.NotificationSettings)
	if err != nil {
		return fmt.Errorf("failed to encode notification settings: %w", err)
	}

	query := `INSERT INTO user_preferences (user_id, global_hotkey, cache_policy, theme, window_settings,
			notification_settings, quick_capture_enabled, system_tray_enabled, auto_start,
			analytics_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			global_hotkey = excluded.global_hotkey,
			cache_policy = excluded.cache_policy,
			theme = excluded.theme,
			window_settings = excluded.window_settings,
			notification_settings = excluded.notification_settings,
			quick_capture_enabled = excluded.quick_capture_enabled,
			system_tray_enabled = excluded.system_tray_enabled,
			auto_start = excluded.auto_start,
			analytics_enabled = excluded.analytics_enabled,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		p.UserID, p.GlobalHotkey, string(p.CachePolicy), string(p.Theme), string(window), string(notification),
		p.QuickCaptureEnabled, p.SystemTrayEnabled, p.AutoStart, p.AnalyticsEnabled,
		timex.ToUnix(p.CreatedAt), timex.ToUnix(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateHotkey(ctx context.Context, userID string, hotkey *string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_preferences SET global_hotkey = ?, updated_at = ? WHERE user_id = ?`,
		hotkey, timex.ToUnix(now), userID)
	if err != nil {
		return fmt.Errorf("failed to update hotkey: %w", err)
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
