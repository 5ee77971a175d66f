// Package cryptox implements the cache encryption key lifecycle and the
// AES-256-GCM envelope used for everything stored in the encrypted cache.
//
// Blob layout produced by Encrypt:
//
//	nonce (12 bytes) || ciphertext || tag (16 bytes)
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

const (
	// KeySize is the length of the symmetric key (AES-256).
	KeySize = 32
	// NonceSize is the GCM nonce length prepended to every blob.
	NonceSize = 12
)

var (
	ErrKeyAccess         = errors.New("secret store unavailable")
	ErrKeyFormat         = errors.New("stored encryption key has invalid format")
	ErrInvalidCiphertext = errors.New("ciphertext too short to contain nonce")
	ErrAuthentication    = errors.New("ciphertext authentication failed")
)

func newGCM(key Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under key with a fresh random nonce.
func Encrypt(key Key, plaintext []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := randomBytes(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, NonceSize+len(plaintext)+aesgcm.Overhead())
	out = append(out, nonce...)
	return aesgcm.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. Any tampering, a wrong key or
// storage corruption yields ErrAuthentication; plaintext is never returned
// in that case.
func Decrypt(key Key, blob []byte) ([]byte, error) {
	if len(blob) < NonceSize {
		return nil, ErrInvalidCiphertext
	}
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext := blob[:NonceSize], blob[NonceSize:]
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
