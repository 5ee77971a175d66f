// Package quickcapture persists quick capture sessions: one-off questions
// asked outside a conversation that may later be promoted into one.
package quickcapture

import (
	"context"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

type Repository interface {
	Upsert(ctx context.Context, s *models.QuickCaptureSession) error
	Get(ctx context.Context, id string) (*models.QuickCaptureSession, error)
	// ListRecent returns up to limit sessions, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.QuickCaptureSession, error)
	Delete(ctx context.Context, id string) error
}
