package cryptox

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Key is the process-wide symmetric cache key.
type Key [KeySize]byte

// ID is a short, non-reversible fingerprint of the key, stored next to every
// ciphertext so rows written under a rotated key can be recognised.
func (k Key) ID() string {
	sum := blake2b.Sum256(k[:])
	return hex.EncodeToString(sum[:8])
}

// KeyManager owns the single cache key. The key lives in a SecretStore under
// a fixed (service, account) pair and is memoized after the first successful
// fetch.
type KeyManager struct {
	store   SecretStore
	service string
	account string

	mu  sync.Mutex
	key *Key
}

// NewKeyManager returns a manager reading and writing the key at
// (service, account) in store.
func NewKeyManager(store SecretStore, service, account string) *KeyManager {
	return &KeyManager{store: store, service: service, account: account}
}

// GetOrCreateKey returns the stored key, generating and persisting one when
// the store has none. Concurrent first callers serialize on the manager so
// exactly one key is ever generated; failures are not cached.
func (m *KeyManager) GetOrCreateKey(ctx context.Context) (Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key != nil {
		return *m.key, nil
	}
	if err := ctx.Err(); err != nil {
		return Key{}, err
	}

	secret, err := m.store.Get(m.service, m.account)
	switch {
	case err == nil:
		key, err := decodeKey(secret)
		if err != nil {
			return Key{}, err
		}
		m.key = &key
		return key, nil
	case errors.Is(err, ErrSecretNotFound):
		key, err := m.generate()
		if err != nil {
			return Key{}, err
		}
		m.key = &key
		return key, nil
	default:
		return Key{}, fmt.Errorf("%w: %v", ErrKeyAccess, err)
	}
}

func (m *KeyManager) generate() (Key, error) {
	raw, err := randomBytes(KeySize)
	if err != nil {
		return Key{}, fmt.Errorf("failed to generate key: %w", err)
	}
	defer wipe(raw)

	var key Key
	copy(key[:], raw)

	if err := m.store.Set(m.service, m.account, base64.StdEncoding.EncodeToString(raw)); err != nil {
		return Key{}, fmt.Errorf("%w: failed to persist key: %v", ErrKeyAccess, err)
	}
	return key, nil
}

func decodeKey(secret string) (Key, error) {
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}
	defer wipe(raw)

	if len(raw) != KeySize {
		return Key{}, fmt.Errorf("%w: got %d bytes, want %d", ErrKeyFormat, len(raw), KeySize)
	}
	var key Key
	copy(key[:], raw)
	return key, nil
}
