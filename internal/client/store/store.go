// Package store opens the client database, applies migrations and hands out
// repositories bound either to the pool or to a transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/cacheentries"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/conversations"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/droppedfiles"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/messages"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/preferences"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/queue"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/quickcapture"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/servers"
	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
)

// Config selects the database file and pool size.
type Config struct {
	Path         string
	MaxOpenConns int
}

// Repositories groups every repository over one DBTX.
type Repositories struct {
	Conversations conversations.Repository
	Messages      messages.Repository
	Queue         queue.Repository
	Servers       servers.Repository
	Preferences   preferences.Repository
	CacheEntries  cacheentries.Repository
	DroppedFiles  droppedfiles.Repository
	QuickCapture  quickcapture.Repository
}

// NewRepositories binds all repositories to db (a *sql.DB or a *sql.Tx).
func NewRepositories(db dbx.DBTX) *Repositories {
	return &Repositories{
		Conversations: conversations.NewSQLiteRepository(db),
		Messages:      messages.NewSQLiteRepository(db),
		Queue:         queue.NewSQLiteRepository(db),
		Servers:       servers.NewSQLiteRepository(db),
		Preferences:   preferences.NewSQLiteRepository(db),
		CacheEntries:  cacheentries.NewSQLiteRepository(db),
		DroppedFiles:  droppedfiles.NewSQLiteRepository(db),
		QuickCapture:  quickcapture.NewSQLiteRepository(db),
	}
}

// Store is the opened client database.
type Store struct {
	*Repositories
	DB *sql.DB
}

// Open opens the database at cfg.Path and migrates it to the latest schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := dbx.OpenSQLite(ctx, cfg.Path, cfg.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{Repositories: NewRepositories(db), DB: db}
}

// InTx runs fn with repositories bound to a single transaction, committing
// when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return dbx.WithTx(ctx, s.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewRepositories(tx))
	})
}

func (s *Store) Close() error {
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
