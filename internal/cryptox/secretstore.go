package cryptox

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

// ErrSecretNotFound is returned by a SecretStore when nothing is stored.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore is a platform secret store addressed by (service, account).
type SecretStore interface {
	Get(service, account string) (string, error)
	Set(service, account, secret string) error
}

// KeyringStore keeps secrets in the OS keychain (macOS Keychain, Windows
// Credential Manager, Secret Service on Linux).
type KeyringStore struct{}

func (KeyringStore) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	return secret, err
}

func (KeyringStore) Set(service, account, secret string) error {
	return keyring.Set(service, account, secret)
}

// MemoryStore is a process-local SecretStore for tests and headless runs
// where no keychain is available. Secrets do not survive restarts. The zero
// value is ready to use.
type MemoryStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]string)}
}

func (s *MemoryStore) Get(service, account string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.secrets[service+"\x00"+account]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(service, account, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secrets == nil {
		s.secrets = make(map[string]string)
	}
	s.secrets[service+"\x00"+account] = secret
	return nil
}
