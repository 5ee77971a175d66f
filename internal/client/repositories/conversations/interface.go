package conversations

import (
	"context"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

// Repository describes storage operations for Conversation objects.
type Repository interface {
	// Upsert inserts a conversation or updates it by ID.
	Upsert(ctx context.Context, c *models.Conversation) error

	// Get returns common.ErrorNotFound for unknown ids.
	Get(ctx context.Context, id string) (*models.Conversation, error)

	// List returns a page ordered by updated_at, newest first.
	List(ctx context.Context, limit, offset int) ([]*models.Conversation, error)

	// Delete removes the conversation together with its messages and queue.
	Delete(ctx context.Context, id string) error

	// RefreshStats recomputes message_count and last_message_preview.
	RefreshStats(ctx context.Context, id string) error
}
