// Package servers persists chat server configurations and their session state.
package servers

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

// Repository stores ServerConfiguration rows. At most one row is active.
type Repository interface {
	Upsert(ctx context.Context, s *models.ServerConfiguration) error
	Get(ctx context.Context, id string) (*models.ServerConfiguration, error)
	List(ctx context.Context) ([]*models.ServerConfiguration, error)

	// GetActive returns common.ErrorNotFound when no server is active.
	GetActive(ctx context.Context) (*models.ServerConfiguration, error)
	// SetActive deactivates every server, then activates id, atomically.
	SetActive(ctx context.Context, id string) error

	UpdateTokens(ctx context.Context, id string, access, refresh *string, expiresAt *time.Time) error
	UpdateConnectionStatus(ctx context.Context, id string, status models.ConnectionStatus, lastConnected *time.Time) error
	Delete(ctx context.Context, id string) error
}
