// Package remote is the client-side facade over the chat service REST API.
//
// Client is the narrow interface the sync engine depends on; HTTPClient is
// its net/http implementation. Tests substitute their own Client or point an
// HTTPClient at an httptest server.
package remote

import "context"

// Client is the subset of the remote chat API used for reconciliation.
type Client interface {
	GetConversation(ctx context.Context, id string) (*ConversationDetail, error)
	SendMessage(ctx context.Context, req SendMessageRequest) (*MessageResponse, error)
	ListConversations(ctx context.Context, params ListConversationsParams) (*ConversationList, error)
}
