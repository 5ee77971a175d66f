package queue

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

// Repository stores outbox entries.
type Repository interface {
	// Enqueue inserts or replaces an entry and its attachments atomically.
	Enqueue(ctx context.Context, e *models.QueueEntry) error
	Get(ctx context.Context, id string) (*models.QueueEntry, error)
	// ListPending returns send-eligible entries at now, oldest first.
	ListPending(ctx context.Context, now time.Time) ([]*models.QueueEntry, error)
	// List returns every entry, eligible or not, oldest first.
	List(ctx context.Context) ([]*models.QueueEntry, error)
	// UpdateRetry persists the retry bookkeeping of e.
	UpdateRetry(ctx context.Context, e *models.QueueEntry) error
	Delete(ctx context.Context, id string) error
}
