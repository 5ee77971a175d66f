// Package app wires the client components together from a Config and runs
// the background maintenance loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/cache"
	"github.com/dmitrijs2005/chatkeeper/internal/client/config"
	"github.com/dmitrijs2005/chatkeeper/internal/client/remote"
	"github.com/dmitrijs2005/chatkeeper/internal/client/services"
	"github.com/dmitrijs2005/chatkeeper/internal/client/store"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/cryptox"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
)

// ErrOffline is returned by operations that need the remote service when no
// server is configured.
var ErrOffline = errors.New("no chat server configured")

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// PassReport summarises one maintenance pass.
type PassReport struct {
	Outbox  services.OutboxReport
	Evicted int64
}

type App struct {
	Store       *store.Store
	Cache       *cache.Store
	Servers     *services.ServerService
	Preferences *services.PreferencesService
	Sync        *services.SyncService

	cfg     *config.Config
	log     logging.Logger
	clock   func() time.Time
	secrets cryptox.SecretStore
	remote  remote.Client
	online  bool

	mu   sync.Mutex
	mode Mode
}

type Option func(*App)

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(a *App) { a.clock = clock }
}

// WithSecretStore replaces the store selected by the config.
func WithSecretStore(s cryptox.SecretStore) Option {
	return func(a *App) { a.secrets = s }
}

// WithRemote replaces the HTTP client built from the config.
func WithRemote(rc remote.Client) Option {
	return func(a *App) { a.remote = rc }
}

// New opens the store and builds every service. The remote service is
// rooted at cfg.ServerURL, or at the active server's base URL when that is
// empty; with neither the app works offline only.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, log: logging.Discard(), clock: time.Now, mode: ModeOffline}
	for _, o := range opts {
		o(a)
	}
	if a.secrets == nil {
		if cfg.UseMemoryKeyring {
			a.secrets = cryptox.NewMemoryStore()
		} else {
			a.secrets = cryptox.KeyringStore{}
		}
	}

	st, err := store.Open(ctx, store.Config{Path: cfg.DBPath, MaxOpenConns: cfg.MaxOpenConns})
	if err != nil {
		return nil, err
	}
	a.Store = st

	keys := cryptox.NewKeyManager(a.secrets, cfg.KeyringService, cfg.KeyringAccount)
	a.Cache = cache.NewStore(st.CacheEntries, keys, cache.WithClock(a.clock), cache.WithLogger(a.log))
	a.Servers = services.NewServerService(st.Servers, a.log, a.clock)
	a.Preferences = services.NewPreferencesService(st.Preferences, a.clock)

	if a.remote == nil {
		rc, err := a.newHTTPClient(ctx)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		if rc != nil {
			a.remote = rc
		}
	}
	a.online = a.remote != nil
	if !a.online {
		a.remote = offlineClient{}
	}
	a.Sync = services.NewSyncService(st, a.remote, a.log, a.clock)

	return a, nil
}

func (a *App) newHTTPClient(ctx context.Context) (*remote.HTTPClient, error) {
	baseURL := a.cfg.ServerURL
	if baseURL == "" {
		srv, err := a.Servers.Active(ctx)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, nil
		case err != nil:
			return nil, err
		}
		baseURL = srv.BaseURL
	}

	return remote.NewHTTPClient(baseURL,
		remote.WithHTTPClient(&http.Client{Timeout: a.cfg.RequestTimeout}),
		remote.WithTokenSource(a.accessToken),
		remote.WithRateLimit(a.cfg.RequestsPerSecond, 1),
	)
}

// accessToken sends requests unauthenticated when no server is active.
func (a *App) accessToken(ctx context.Context) (string, error) {
	tok, err := a.Servers.AccessToken(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		return "", nil
	}
	return tok, err
}

// Online reports whether a remote service is configured.
func (a *App) Online() bool {
	return a.online
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "switched mode", "mode", mode)
	}
}

// ActiveServerID returns the id conversations are synced under.
func (a *App) ActiveServerID(ctx context.Context) (string, error) {
	srv, err := a.Servers.Active(ctx)
	if err != nil {
		return "", fmt.Errorf("no active server: %w", err)
	}
	return srv.ID, nil
}

// SyncConversation pulls one conversation under the active server.
func (a *App) SyncConversation(ctx context.Context, id string) error {
	if !a.online {
		return ErrOffline
	}
	serverID, err := a.ActiveServerID(ctx)
	if err != nil {
		return err
	}
	err = a.Sync.SyncConversation(ctx, serverID, id)
	a.observe(ctx, serverID, err == nil, err != nil)
	return err
}

// SyncAll pulls every conversation the remote lists.
func (a *App) SyncAll(ctx context.Context, search string) (services.SyncReport, error) {
	if !a.online {
		return services.SyncReport{}, ErrOffline
	}
	serverID, err := a.ActiveServerID(ctx)
	if err != nil {
		return services.SyncReport{}, err
	}
	rep, err := a.Sync.SyncConversations(ctx, serverID, remote.ListConversationsParams{Search: search})
	a.observe(ctx, serverID, len(rep.Synced) > 0, err != nil)
	return rep, err
}

// FlushOutbox replays queued messages once.
func (a *App) FlushOutbox(ctx context.Context) (services.OutboxReport, error) {
	if !a.online {
		return services.OutboxReport{}, ErrOffline
	}
	rep, err := a.Sync.ProcessOutbox(ctx)
	if serverID, idErr := a.ActiveServerID(ctx); idErr == nil {
		a.observe(ctx, serverID, rep.Sent > 0, rep.Sent == 0 && rep.Failed > 0)
	}
	return rep, err
}

// PruneCache applies the user's cache policy.
func (a *App) PruneCache(ctx context.Context) (cache.PruneReport, error) {
	prefs, err := a.Preferences.Get(ctx, a.cfg.UserID)
	if err != nil {
		return cache.PruneReport{}, err
	}
	return a.Cache.Prune(ctx, prefs.CachePolicy)
}

// observe records reachability of serverID after a remote round trip.
func (a *App) observe(ctx context.Context, serverID string, ok, failed bool) {
	var err error
	switch {
	case ok:
		a.setMode(ctx, ModeOnline)
		err = a.Servers.MarkConnected(ctx, serverID)
	case failed:
		a.setMode(ctx, ModeOffline)
		err = a.Servers.MarkError(ctx, serverID)
	}
	if err != nil {
		a.log.Warn(ctx, "failed to record connection status", "server_id", serverID, "error", err)
	}
}

// RunPass drains the outbox (when online) and evicts expired cache entries.
func (a *App) RunPass(ctx context.Context) (PassReport, error) {
	var rep PassReport
	if a.online {
		out, err := a.FlushOutbox(ctx)
		rep.Outbox = out
		if err != nil {
			return rep, err
		}
	}
	n, err := a.Cache.EvictExpired(ctx)
	rep.Evicted = n
	return rep, err
}

// Run executes a pass immediately and then every sync interval until ctx is
// done. Pass failures are logged and do not stop the loop.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.SyncInterval)
	defer ticker.Stop()

	log := a.log.With("component", "runner", "online", a.online)
	log.Info(ctx, "runner started", "interval", a.cfg.SyncInterval)
	for {
		rep, err := a.RunPass(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error(ctx, "maintenance pass failed", "error", err)
		} else if err == nil {
			log.Debug(ctx, "maintenance pass done",
				"sent", rep.Outbox.Sent, "failed", rep.Outbox.Failed, "evicted", rep.Evicted)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

func (a *App) Close() error {
	return a.Store.Close()
}

// offlineClient backs the sync service when no server is configured.
type offlineClient struct{}

func (offlineClient) GetConversation(context.Context, string) (*remote.ConversationDetail, error) {
	return nil, ErrOffline
}

func (offlineClient) SendMessage(context.Context, remote.SendMessageRequest) (*remote.MessageResponse, error) {
	return nil, ErrOffline
}

func (offlineClient) ListConversations(context.Context, remote.ListConversationsParams) (*remote.ConversationList, error) {
	return nil, ErrOffline
}
