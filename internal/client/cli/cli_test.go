package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/chatkeeper/internal/client/app"
	"github.com/dmitrijs2005/chatkeeper/internal/client/remote"
	"github.com/dmitrijs2005/chatkeeper/internal/cryptox"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t       *testing.T
	dbPath  string
	secrets *cryptox.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	stubTerminal(t, false, nil, nil)
	return &harness{t: t, dbPath: filepath.Join(t.TempDir(), "client.db"), secrets: cryptox.NewMemoryStore()}
}

// run executes one command with a fresh CLI against the shared database.
func (h *harness) run(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	c := New(app.WithSecretStore(h.secrets))
	root, err := c.Command()
	require.NoError(h.t, err)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{
		"--db-path", h.dbPath,
		"--env-file", filepath.Join(h.t.TempDir(), "none.env"),
		"--requests-per-second", "0",
	}, args...))

	err = root.ExecuteContext(context.Background())
	require.NoError(h.t, c.Close())
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run(stdin, args...)
	require.NoError(h.t, err, errOut)
	return out
}

type chatServer struct {
	srv  *httptest.Server
	mu   sync.Mutex
	auth []string
	sent []remote.SendMessageRequest
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()
	c := &chatServer{}
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/convos/{id}", func(w http.ResponseWriter, r *http.Request) {
			c.mu.Lock()
			c.auth = append(c.auth, r.Header.Get("Authorization"))
			c.mu.Unlock()
			id := chi.URLParam(r, "id")
			if id != "c1" {
				http.Error(w, "conversation not found", http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"conversationId": "c1",
				"title":          "Greetings",
				"createdAt":      "2024-01-01T10:00:00Z",
				"updatedAt":      "2024-01-01T11:00:00Z",
				"messages": []map[string]any{
					{"messageId": "m1", "conversationId": "c1", "text": "hi", "sender": "user", "createdAt": "2024-01-01T10:00:00Z"},
					{"messageId": "m2", "conversationId": "c1", "text": "hello", "sender": "assistant", "createdAt": "2024-01-01T10:00:05Z"},
				},
			})
		})
		r.Post("/messages", func(w http.ResponseWriter, r *http.Request) {
			var req remote.SendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			c.mu.Lock()
			c.sent = append(c.sent, req)
			c.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(remote.MessageResponse{Message: remote.Message{MessageID: "srv-1", Text: req.Text}})
		})
	})
	c.srv = httptest.NewServer(r)
	t.Cleanup(c.srv.Close)
	return c
}

func TestServerCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("", "server", "add", "s1", "https://chat.example.com/api", "--name", "Work")
	assert.Equal(t, "server s1 saved\n", out)

	_, _, err := h.run("", "server", "login")
	require.Error(t, err, "no active server yet")

	h.mustRun("", "server", "use", "s1")
	out = h.mustRun("", "server", "ls")
	assert.Contains(t, out, "* s1")
	assert.Contains(t, out, "Work")

	out = h.mustRun("piped-token\n", "server", "login")
	assert.Equal(t, "logged in to s1\n", out)
	out = h.mustRun("", "server", "logout", "s1")
	assert.Equal(t, "logged out of s1\n", out)

	_, _, err = h.run("", "server", "use", "missing")
	require.Error(t, err)
	_, _, err = h.run("", "server", "add", "s2", "not a url")
	require.Error(t, err)
}

func TestSyncSendAndFlush(t *testing.T) {
	chat := newChatServer(t)
	h := newHarness(t)

	h.mustRun("", "server", "add", "s1", chat.srv.URL+"/api", "--activate")
	h.mustRun("", "server", "login", "--token", "tok-1")

	out := h.mustRun("", "sync", "c1")
	assert.Equal(t, "synced c1\n", out)

	_, _, err := h.run("", "sync", "missing")
	require.Error(t, err)

	attachment := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(attachment, []byte("abc"), 0o600))

	out = h.mustRun("", "send", "c1", "see", "attached", "-f", attachment)
	assert.True(t, strings.HasPrefix(out, "queued "))
	out = h.mustRun("typed on stdin\n\n", "send", "c1")
	assert.True(t, strings.HasPrefix(out, "queued "))

	_, _, err = h.run("", "send", "unknown-conversation", "x")
	require.Error(t, err, "foreign key on conversation")

	out = h.mustRun("", "outbox", "ls")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	out = h.mustRun("", "outbox", "flush")
	assert.Equal(t, "sent 2, failed 0\n", out)
	assert.Empty(t, h.mustRun("", "outbox", "ls"))

	chat.mu.Lock()
	defer chat.mu.Unlock()
	require.Len(t, chat.sent, 2)
	texts := []string{chat.sent[0].Text, chat.sent[1].Text}
	assert.ElementsMatch(t, []string{"see attached", "typed on stdin"}, texts)
	for _, s := range chat.sent {
		if s.Text == "see attached" {
			assert.Equal(t, []string{attachment}, s.Files)
		}
	}
	assert.Equal(t, "Bearer tok-1", chat.auth[0])
}

func TestSyncArgs(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("", "sync")
	require.Error(t, err)
	_, _, err = h.run("", "sync", "c1", "--all")
	require.Error(t, err)

	_, _, err = h.run("", "sync", "c1")
	require.ErrorIs(t, err, app.ErrOffline)
	_, _, err = h.run("", "outbox", "flush")
	require.ErrorIs(t, err, app.ErrOffline)
}

func TestCacheCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("secret payload", "cache", "put", "k1", "--type", "message")
	assert.Equal(t, "stored k1 (14 bytes)\n", out)

	file := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(file, []byte("file payload"), 0o600))
	h.mustRun("", "cache", "put", "k2", file, "--ttl", "1h")

	assert.Equal(t, "secret payload", h.mustRun("", "cache", "get", "k1"))
	assert.Equal(t, "file payload", h.mustRun("", "cache", "get", "k2"))

	_, _, err := h.run("", "cache", "get", "nope")
	require.ErrorIs(t, err, errCacheMiss)
	_, _, err = h.run("x", "cache", "put", "k3", "--type", "bogus")
	require.Error(t, err)

	out = h.mustRun("", "cache", "ls")
	assert.Contains(t, out, "k1")
	assert.Contains(t, out, "total message      14 bytes")
	assert.Contains(t, out, "total conversation 12 bytes")

	assert.Equal(t, "evicted 0\n", h.mustRun("", "cache", "evict"))
	assert.Equal(t, "expired 0, trimmed 0\n", h.mustRun("", "cache", "prune"))
}
