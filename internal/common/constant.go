package common

// Secret store addressing for the cache encryption key.
const (
	KeyringService = "chatkeeper"
	KeyringAccount = "cache-encryption-key"
)

// DefaultMaxRetries is used for outbox entries created without an explicit limit.
const DefaultMaxRetries = 3
