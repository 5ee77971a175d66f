// Package preferences persists per-user client settings.
package preferences

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

// Repository stores one UserPreferences row per user.
type Repository interface {
	// Load returns common.ErrorNotFound when the user has no stored row.
	// Unknown cache_policy or theme tags fall back to their defaults.
	Load(ctx context.Context, userID string) (*models.UserPreferences, error)
	Save(ctx context.Context, p *models.UserPreferences) error
	UpdateHotkey(ctx context.Context, userID string, hotkey *string, now time.Time) error
}
