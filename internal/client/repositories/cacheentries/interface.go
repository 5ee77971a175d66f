// Package cacheentries is the row store behind the encrypted cache. It never
// sees plaintext; encryption happens in package cache.
package cacheentries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

// Repository stores encrypted_cache rows.
type Repository interface {
	// Put upserts the row. created_at is kept from the first insert.
	Put(ctx context.Context, e *models.CacheEntry) error
	// Get returns the row including its payload, or common.ErrorNotFound.
	Get(ctx context.Context, key string) (*models.CacheEntry, error)
	Touch(ctx context.Context, key string, at time.Time) error
	Delete(ctx context.Context, key string) error
	// List returns metadata of every row, payload left empty.
	List(ctx context.Context) ([]models.CacheEntry, error)
	// DeleteExpired removes rows with expires_at <= now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// DeleteBeyondSize keeps the most recently accessed rows whose combined
	// size fits maxBytes and removes the rest.
	DeleteBeyondSize(ctx context.Context, maxBytes int64) (int64, error)
	// Usage sums size_bytes of unexpired rows per cache type.
	Usage(ctx context.Context, now time.Time) (map[models.CacheType]int64, error)
}
