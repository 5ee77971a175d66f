// Package models defines the client-side domain types persisted by the local
// store and exchanged with the sync engine.
package models

import "time"

// Conversation is the local mirror of a remote conversation plus
// offline-only bookkeeping.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	// UpdatedAt never moves backwards; the store keeps the later of the
	// stored and written values.
	UpdatedAt          time.Time
	IsPinned           bool
	IsStarred          bool
	ServerID           string
	SyncState          SyncState
	CachePolicy        CachePolicy
	MessageCount       int
	LastMessagePreview *string
}

// IncrementMessageCount bumps the cached counter when new content arrives.
func (c *Conversation) IncrementMessageCount() {
	c.MessageCount++
}
