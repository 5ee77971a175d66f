// Package messages persists chat messages and the attachments they own.
package messages

import (
	"context"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

// Repository stores Message rows. A message and its attachments are always
// written together; attachments are replaced, never merged.
type Repository interface {
	Upsert(ctx context.Context, m *models.Message) error
	Get(ctx context.Context, id string) (*models.Message, error)
	// ListByConversation returns messages oldest first, with attachments.
	ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
	Delete(ctx context.Context, id string) error
}
