package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/remote"
	"github.com/dmitrijs2005/chatkeeper/internal/client/store"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeRemote serves fixed conversations and records sends.
type fakeRemote struct {
	mu            sync.Mutex
	conversations map[string]*remote.ConversationDetail
	pages         []*remote.ConversationList
	getErr        map[string]error
	sendErr       error
	sent          []remote.SendMessageRequest
}

func (f *fakeRemote) GetConversation(_ context.Context, id string) (*remote.ConversationDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[id]; err != nil {
		return nil, err
	}
	d, ok := f.conversations[id]
	if !ok {
		return nil, &remote.HTTPError{StatusCode: 404, Message: "not found"}
	}
	return d, nil
}

func (f *fakeRemote) SendMessage(_ context.Context, req remote.SendMessageRequest) (*remote.MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, req)
	return &remote.MessageResponse{Message: remote.Message{MessageID: "srv", Text: req.Text}}, nil
}

func (f *fakeRemote) ListConversations(_ context.Context, params remote.ListConversationsParams) (*remote.ConversationList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pages {
		if p.Offset == params.Offset {
			return p, nil
		}
	}
	return nil, errors.New("unexpected page")
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "client.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedServer(t *testing.T, s *store.Store, id string) {
	t.Helper()
	require.NoError(t, s.Servers.Upsert(context.Background(), &models.ServerConfiguration{
		ID: id, Name: id, BaseURL: "https://chat.example.com/api", AuthType: models.AuthTypeJWT,
		IsSecure: true, ConnectionStatus: models.ConnectionDisconnected, APIVersion: "v1",
		CreatedAt: time.Unix(1_700_000_000, 0).UTC(),
	}))
}

func seedConversation(t *testing.T, s *store.Store, id, serverID string) {
	t.Helper()
	require.NoError(t, s.Conversations.Upsert(context.Background(), &models.Conversation{
		ID: id, Title: id, ServerID: serverID, SyncState: models.SyncStateLocal,
		CachePolicy: models.CachePolicyBalanced,
		CreatedAt:   time.Unix(1_700_000_000, 0).UTC(), UpdatedAt: time.Unix(1_700_000_000, 0).UTC(),
	}))
}
