// Package cli implements the chatkeeper command tree.
//
// Every command loads configuration (defaults, .env, JSON file, CHATKEEPER_*
// environment, flags), opens the local store through app.New and closes it
// when the command returns:
//
//	chatkeeper server add|use|ls|login|logout
//	chatkeeper sync <conversation-id> | sync --all
//	chatkeeper send <conversation-id> [text]
//	chatkeeper outbox ls|flush
//	chatkeeper cache ls|get|put|evict|prune
//	chatkeeper run
package cli
