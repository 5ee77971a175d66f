// Package queue persists the outbox: messages composed locally that still
// have to be delivered to the server.
//
// An entry owns its queued attachments; Enqueue replaces them wholesale in
// the same transaction as the entry row. ListPending applies the send
// eligibility rule in SQL:
//
//	retry_count < max_retries AND (next_retry_at IS NULL OR next_retry_at <= now)
//
// so an exhausted entry is never returned no matter what next_retry_at holds.
package queue
