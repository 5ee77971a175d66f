// Package services holds the client business logic on top of the local store
// and the remote facade: conversation sync, outbox replay, server session
// bookkeeping and user preferences.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/remote"
	"github.com/dmitrijs2005/chatkeeper/internal/client/store"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/google/uuid"
)

// RetryBackoff is the fixed delay before a failed outbox entry is retried.
const RetryBackoff = 5 * time.Minute

// OutboxReport summarises one outbox pass.
type OutboxReport struct {
	Sent   int
	Failed int
}

// SyncReport summarises a multi-conversation sync.
type SyncReport struct {
	Synced []string
	Failed map[string]error
}

// SyncService reconciles the local store with the remote service.
type SyncService struct {
	store  *store.Store
	remote remote.Client
	log    logging.Logger
	clock  func() time.Time
}

func NewSyncService(st *store.Store, rc remote.Client, log logging.Logger, clock func() time.Time) *SyncService {
	if clock == nil {
		clock = time.Now
	}
	return &SyncService{store: st, remote: rc, log: log, clock: clock}
}

// SyncConversation pulls a conversation and its messages and overwrites the
// local copy. Everything is mapped before anything is written; a mapping
// error leaves local state untouched and wraps ErrInvalidData.
func (s *SyncService) SyncConversation(ctx context.Context, serverID, conversationID string) error {
	detail, err := s.remote.GetConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to fetch conversation %s: %w", conversationID, err)
	}

	conv, err := mapConversation(detail.ConversationSummary, serverID)
	if err != nil {
		return err
	}
	if conv.ID != conversationID {
		return fmt.Errorf("%w: requested conversation %s, got %s", ErrInvalidData, conversationID, conv.ID)
	}

	msgs := make([]*models.Message, 0, len(detail.Messages))
	for i := range detail.Messages {
		m, err := mapMessage(&detail.Messages[i], conv.ID)
		if err != nil {
			return err
		}
		msgs = append(msgs, m)
	}

	err = s.store.InTx(ctx, func(ctx context.Context, repos *store.Repositories) error {
		if err := repos.Conversations.Upsert(ctx, conv); err != nil {
			return err
		}
		for _, m := range msgs {
			if err := repos.Messages.Upsert(ctx, m); err != nil {
				return err
			}
		}
		return repos.Conversations.RefreshStats(ctx, conv.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to store conversation %s: %w", conversationID, err)
	}

	s.log.Debug(ctx, "conversation synced", "conversation_id", conv.ID, "messages", len(msgs))
	return nil
}

// SyncConversations lists remote conversations page by page and syncs each
// one. A failed conversation is recorded in the report and does not stop the
// others; only a failed listing aborts.
func (s *SyncService) SyncConversations(ctx context.Context, serverID string, params remote.ListConversationsParams) (SyncReport, error) {
	report := SyncReport{Failed: make(map[string]error)}

	for {
		page, err := s.remote.ListConversations(ctx, params)
		if err != nil {
			return report, fmt.Errorf("failed to list conversations: %w", err)
		}

		for _, summary := range page.Conversations {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if err := s.SyncConversation(ctx, serverID, summary.ConversationID); err != nil {
				s.log.Error(ctx, "conversation sync failed", "conversation_id", summary.ConversationID, "error", err)
				report.Failed[summary.ConversationID] = err
				continue
			}
			report.Synced = append(report.Synced, summary.ConversationID)
		}

		if !page.HasMore || len(page.Conversations) == 0 {
			break
		}
		params.Offset += len(page.Conversations)
	}

	s.log.Info(ctx, "conversations synced", "synced", len(report.Synced), "failed", len(report.Failed))
	return report, nil
}

// ProcessOutbox sends every send-eligible queue entry. Delivered entries are
// deleted; failed ones get retry_count+1 and next_retry_at = now+RetryBackoff.
// Send failures never surface as an error; only bookkeeping failures do.
func (s *SyncService) ProcessOutbox(ctx context.Context) (OutboxReport, error) {
	var report OutboxReport
	now := s.clock()

	pending, err := s.store.Queue.ListPending(ctx, now)
	if err != nil {
		return report, fmt.Errorf("failed to list outbox: %w", err)
	}

	for _, e := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		_, sendErr := s.remote.SendMessage(ctx, sendRequest(e))
		if sendErr == nil {
			if err := s.store.Queue.Delete(ctx, e.ID); err != nil {
				return report, fmt.Errorf("failed to remove delivered entry %s: %w", e.ID, err)
			}
			report.Sent++
			continue
		}

		msg := sendErr.Error()
		next := now.Add(RetryBackoff)
		e.RetryCount++
		e.NextRetryAt = &next
		e.ErrorMessage = &msg
		e.ProcessingState = models.ProcessingFailed
		if err := s.store.Queue.UpdateRetry(ctx, e); err != nil {
			return report, fmt.Errorf("failed to reschedule entry %s: %w", e.ID, err)
		}
		report.Failed++
		s.log.Warn(ctx, "outbox send failed", "entry_id", e.ID, "retry_count", e.RetryCount,
			"max_retries", e.MaxRetries, "error", sendErr)
	}

	if report.Sent+report.Failed > 0 {
		s.log.Info(ctx, "outbox processed", "sent", report.Sent, "failed", report.Failed)
	}
	return report, nil
}

// Enqueue stores a message for later delivery. maxRetries <= 0 uses
// common.DefaultMaxRetries.
func (s *SyncService) Enqueue(ctx context.Context, conversationID, text string, attachments []models.QueuedAttachment, maxRetries int) (*models.QueueEntry, error) {
	if maxRetries <= 0 {
		maxRetries = common.DefaultMaxRetries
	}
	e := &models.QueueEntry{
		ID:              uuid.NewString(),
		ConversationID:  conversationID,
		Content:         text,
		Attachments:     attachments,
		CreatedAt:       s.clock(),
		MaxRetries:      maxRetries,
		ProcessingState: models.ProcessingPending,
	}
	if err := s.store.Queue.Enqueue(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func sendRequest(e *models.QueueEntry) remote.SendMessageRequest {
	req := remote.SendMessageRequest{Text: e.Content, ConversationID: e.ConversationID}
	for _, a := range e.Attachments {
		req.Files = append(req.Files, a.FilePath)
	}
	return req
}

func mapConversation(s remote.ConversationSummary, serverID string) (*models.Conversation, error) {
	if s.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversation without id", ErrInvalidData)
	}
	created, err := parseTimestamp(s.CreatedAt, "createdAt")
	if err != nil {
		return nil, err
	}
	updated, err := parseTimestamp(s.UpdatedAt, "updatedAt")
	if err != nil {
		return nil, err
	}
	return &models.Conversation{
		ID:          s.ConversationID,
		Title:       s.Title,
		CreatedAt:   created,
		UpdatedAt:   updated,
		IsPinned:    s.IsPinned,
		IsStarred:   s.IsStarred,
		ServerID:    serverID,
		SyncState:   models.SyncStateSynced,
		CachePolicy: models.CachePolicyBalanced,
	}, nil
}

func mapMessage(m *remote.Message, conversationID string) (*models.Message, error) {
	if m.MessageID == "" {
		return nil, fmt.Errorf("%w: message without id", ErrInvalidData)
	}
	if m.ConversationID != "" && m.ConversationID != conversationID {
		return nil, fmt.Errorf("%w: message %s belongs to conversation %s", ErrInvalidData, m.MessageID, m.ConversationID)
	}
	role, err := models.ParseMessageRole(m.Sender)
	if err != nil {
		return nil, fmt.Errorf("%w: message %s: unexpected sender %q", ErrInvalidData, m.MessageID, m.Sender)
	}
	ts, err := parseTimestamp(m.CreatedAt, "createdAt")
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:              m.MessageID,
		ConversationID:  conversationID,
		Content:         m.Text,
		Role:            role,
		Timestamp:       ts,
		SyncState:       models.SyncStateSynced,
		ProcessingState: models.ProcessingComplete,
	}
	msg.Metadata, err = remoteMetadata(m)
	if err != nil {
		return nil, err
	}
	for _, f := range m.Files {
		msg.AddAttachment(models.MessageAttachment{
			FileID:    f.FileID,
			Filename:  f.Filename,
			MimeType:  f.Type,
			SizeBytes: f.Size,
		})
	}
	return msg, nil
}

// remoteMetadata keeps the optional remote fields that have no column.
func remoteMetadata(m *remote.Message) (map[string]json.RawMessage, error) {
	fields := map[string]any{}
	if m.ParentMessageID != nil {
		fields["parentMessageId"] = *m.ParentMessageID
	}
	if m.Model != nil {
		fields["model"] = *m.Model
	}
	if m.TokenCount != nil {
		fields["tokenCount"] = *m.TokenCount
	}
	if m.FinishReason != nil {
		fields["finishReason"] = *m.FinishReason
	}
	if m.Error {
		fields["error"] = true
	}
	if len(fields) == 0 {
		return nil, nil
	}

	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}

func parseTimestamp(v, field string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s timestamp %q", ErrInvalidData, field, v)
	}
	return t.UTC(), nil
}
