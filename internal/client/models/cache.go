package models

import "time"

// CacheEntry is a row of the encrypted cache. EncryptedData is only
// populated by reads that need the payload.
type CacheEntry struct {
	Key             string
	EncryptedData   []byte
	CreatedAt       time.Time
	AccessedAt      time.Time
	ExpiresAt       *time.Time
	CacheType       CacheType
	SizeBytes       int64
	EncryptionKeyID string
}

// IsExpired reports whether the entry is logically dead at now.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}

// CacheLimits are the retention and size bounds of a cache policy.
type CacheLimits struct {
	Retention time.Duration
	MaxBytes  int64
}

const mib = int64(1) << 20

// Limits returns the retention/size tier of the policy. Disabled caches
// nothing; unknown policies get the balanced tier.
func (p CachePolicy) Limits() CacheLimits {
	switch p {
	case CachePolicyDisabled:
		return CacheLimits{}
	case CachePolicyLightweight:
		return CacheLimits{Retention: 7 * 24 * time.Hour, MaxBytes: 100 * mib}
	case CachePolicyExtended:
		return CacheLimits{Retention: 90 * 24 * time.Hour, MaxBytes: 2048 * mib}
	default:
		return CacheLimits{Retention: 30 * 24 * time.Hour, MaxBytes: 500 * mib}
	}
}
