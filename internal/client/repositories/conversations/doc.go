// Package conversations provides the client-side persistence layer for
// conversations.
//
// # Data Model
//
// A conversation belongs to one server configuration and owns its messages
// (see package messages); deleting either cascades. message_count and
// last_message_preview are a cache over the message rows and can always be
// recomputed with RefreshStats.
//
// updated_at never moves backwards: Upsert keeps the later of the stored and
// the written value, so a stale remote snapshot cannot rewind local ordering.
// created_at is fixed by the first insert.
//
// Typical Usage
//
//	repo := conversations.NewSQLiteRepository(db)
//	_ = repo.Upsert(ctx, conv)
//	page, _ := repo.List(ctx, 50, 0)
//	_ = repo.RefreshStats(ctx, conv.ID)
package conversations
