// Package cache is the encrypted key/value cache for opaque derived data
// such as rendered previews. Payloads are sealed with the process cache key
// before they reach the database and opened again on read; rows are evicted
// by expiry or by the size tier of a cache policy.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/cacheentries"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/cryptox"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
)

// KeyProvider supplies the symmetric cache key.
type KeyProvider interface {
	GetOrCreateKey(ctx context.Context) (cryptox.Key, error)
}

// PruneReport counts the rows removed by Prune.
type PruneReport struct {
	Expired int64
	Trimmed int64
}

// Store encrypts on write and decrypts on read.
type Store struct {
	repo  cacheentries.Repository
	keys  KeyProvider
	log   logging.Logger
	clock func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(repo cacheentries.Repository, keys KeyProvider, opts ...Option) *Store {
	s := &Store{repo: repo, keys: keys, log: logging.Discard(), clock: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Put encrypts plaintext and stores it under key. A nil expiresAt keeps the
// entry until it is deleted or trimmed. created_at of an existing key is kept.
func (s *Store) Put(ctx context.Context, key string, cacheType models.CacheType, plaintext []byte, expiresAt *time.Time) error {
	k, err := s.keys.GetOrCreateKey(ctx)
	if err != nil {
		return err
	}
	blob, err := cryptox.Encrypt(k, plaintext)
	if err != nil {
		return err
	}

	now := s.clock()
	return s.repo.Put(ctx, &models.CacheEntry{
		Key:             key,
		EncryptedData:   blob,
		CreatedAt:       now,
		AccessedAt:      now,
		ExpiresAt:       expiresAt,
		CacheType:       cacheType,
		SizeBytes:       int64(len(plaintext)),
		EncryptionKeyID: k.ID(),
	})
}

// PutWithPolicy stores plaintext with the expiry of policy. Nothing is
// stored when the policy disables caching.
func (s *Store) PutWithPolicy(ctx context.Context, key string, cacheType models.CacheType, plaintext []byte, policy models.CachePolicy) error {
	expiresAt, ok := s.ExpiryFor(policy)
	if !ok {
		return nil
	}
	return s.Put(ctx, key, cacheType, plaintext, &expiresAt)
}

// Get returns the decrypted payload. Absent and expired keys are a miss
// (nil, false, nil). A payload that fails to decrypt is an error, never a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, err := s.repo.Get(ctx, key)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	now := s.clock()
	if e.IsExpired(now) {
		return nil, false, nil
	}

	k, err := s.keys.GetOrCreateKey(ctx)
	if err != nil {
		return nil, false, err
	}
	plaintext, err := cryptox.Decrypt(k, e.EncryptedData)
	if err != nil {
		if e.EncryptionKeyID != k.ID() {
			s.log.Warn(ctx, "cache entry sealed with another key", "key", key, "key_id", e.EncryptionKeyID)
		}
		return nil, false, fmt.Errorf("cache entry %s: %w", key, err)
	}

	if err := s.repo.Touch(ctx, key, now); err != nil {
		return nil, false, err
	}
	return plaintext, true, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

// EvictExpired deletes every entry whose expiry is at or before now.
func (s *Store) EvictExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.clock())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Debug(ctx, "evicted expired cache entries", "count", n)
	}
	return n, nil
}

// ListEntries returns metadata of all entries without touching payloads.
func (s *Store) ListEntries(ctx context.Context) ([]models.CacheEntry, error) {
	return s.repo.List(ctx)
}

// Usage reports live plaintext bytes per cache type.
func (s *Store) Usage(ctx context.Context) (map[models.CacheType]int64, error) {
	return s.repo.Usage(ctx, s.clock())
}

// ExpiryFor returns the expiry a new entry gets under policy; false means
// the policy caches nothing.
func (s *Store) ExpiryFor(policy models.CachePolicy) (time.Time, bool) {
	limits := policy.Limits()
	if limits.Retention <= 0 {
		return time.Time{}, false
	}
	return s.clock().Add(limits.Retention), true
}

// Prune evicts expired entries, then the least recently accessed ones until
// the remainder fits the policy's size limit.
func (s *Store) Prune(ctx context.Context, policy models.CachePolicy) (PruneReport, error) {
	var report PruneReport

	expired, err := s.EvictExpired(ctx)
	if err != nil {
		return report, err
	}
	report.Expired = expired

	trimmed, err := s.repo.DeleteBeyondSize(ctx, policy.Limits().MaxBytes)
	if err != nil {
		return report, err
	}
	report.Trimmed = trimmed

	s.log.Info(ctx, "cache pruned", "policy", string(policy), "expired", expired, "trimmed", trimmed)
	return report, nil
}
