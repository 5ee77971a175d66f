package models

import (
	"encoding/json"
	"time"
)

// MessageAttachment is owned by exactly one message.
type MessageAttachment struct {
	FileID    string
	Filename  string
	MimeType  *string
	SizeBytes *int64
}

// Message is a single chat message inside a conversation.
type Message struct {
	ID              string
	ConversationID  string
	Content         string
	Role            MessageRole
	Timestamp       time.Time
	SyncState       SyncState
	Metadata        map[string]json.RawMessage
	Attachments     []MessageAttachment
	ProcessingState ProcessingState
}

func (m *Message) AddAttachment(a MessageAttachment) {
	m.Attachments = append(m.Attachments, a)
}
