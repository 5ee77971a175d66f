package models

import "time"

// QueuedAttachment is a local file waiting to be uploaded with its message.
type QueuedAttachment struct {
	FilePath  string
	MimeType  *string
	SizeBytes *int64
}

// QueueEntry is an outbox record: a message composed offline that still has
// to be delivered to the server.
type QueueEntry struct {
	ID              string
	ConversationID  string
	Content         string
	Attachments     []QueuedAttachment
	CreatedAt       time.Time
	RetryCount      int
	MaxRetries      int
	NextRetryAt     *time.Time
	ErrorMessage    *string
	ProcessingState ProcessingState
}

// CanRetry reports whether the entry is send-eligible at now.
func (e *QueueEntry) CanRetry(now time.Time) bool {
	if e.RetryCount >= e.MaxRetries {
		return false
	}
	return e.NextRetryAt == nil || !e.NextRetryAt.After(now)
}
