package remote

import "encoding/json"

// ConversationSummary is the conversation header as the server reports it.
// Timestamps are RFC 3339 strings and are parsed by the consumer.
type ConversationSummary struct {
	ConversationID string `json:"conversationId"`
	Title          string `json:"title"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
	IsPinned       bool   `json:"isPinned"`
	IsStarred      bool   `json:"isStarred"`
}

// ConversationDetail is a summary plus its messages, returned by GET /convos/{id}.
type ConversationDetail struct {
	ConversationSummary
	Messages []Message `json:"messages"`
}

type MessageFile struct {
	FileID   string  `json:"fileId"`
	Filename string  `json:"filename"`
	Type     *string `json:"type,omitempty"`
	Size     *int64  `json:"size,omitempty"`
}

// Message is a remote chat message. Sender carries the role tag.
type Message struct {
	MessageID       string        `json:"messageId"`
	ConversationID  string        `json:"conversationId"`
	Text            string        `json:"text"`
	Sender          string        `json:"sender"`
	CreatedAt       string        `json:"createdAt"`
	IsCreatedByUser bool          `json:"isCreatedByUser"`
	Error           bool          `json:"error"`
	ParentMessageID *string       `json:"parentMessageId,omitempty"`
	Model           *string       `json:"model,omitempty"`
	TokenCount      *int          `json:"tokenCount,omitempty"`
	FinishReason    *string       `json:"finishReason,omitempty"`
	Files           []MessageFile `json:"files,omitempty"`
}

type SendMessageRequest struct {
	Text            string   `json:"text"`
	ConversationID  string   `json:"conversationId"`
	ParentMessageID *string  `json:"parentMessageId,omitempty"`
	Model           *string  `json:"model,omitempty"`
	Endpoint        *string  `json:"endpoint,omitempty"`
	Files           []string `json:"files,omitempty"`
	PresetID        *string  `json:"presetId,omitempty"`
}

// MessageResponse is the server's acknowledgement of a sent message.
// Conversation is left undecoded; its shape varies between server versions.
type MessageResponse struct {
	Message      Message         `json:"message"`
	Conversation json.RawMessage `json:"conversation,omitempty"`
}

type ListConversationsParams struct {
	Limit  int
	Offset int
	Search string
}

type ConversationList struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int                   `json:"total"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
	HasMore       bool                  `json:"hasMore"`
}
