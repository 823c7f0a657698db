// Package memory defines the storage interfaces agents persist their state
// through. Implementations live in subpackages: inmemory for tests and
// single-process runs, redis for anything that has to survive a restart.
package memory

import "context"

// Store is a flat key/value store. Values round-trip through the store as
// interface{}; persistent backends serialize to JSON, so callers should not
// expect pointer identity back.
type Store interface {
	Store(ctx context.Context, key string, value interface{}) error

	// Retrieve returns an error when the key is absent.
	Retrieve(ctx context.Context, key string) (interface{}, error)

	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error

	// List returns all keys in no particular order.
	List(ctx context.Context) ([]string, error)

	Clear(ctx context.Context) error
}

// ConversationStore extends Store with per-session message history.
type ConversationStore interface {
	Store

	AppendMessage(ctx context.Context, sessionID string, role, content string) error

	// GetMessages returns the session's history in append order; an unknown
	// session yields an empty slice, not an error.
	GetMessages(ctx context.Context, sessionID string) ([]Message, error)

	ClearSession(ctx context.Context, sessionID string) error
}

// Message is one turn of a stored conversation.
type Message struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp int64             `json:"timestamp"`
	Meta      map[string]string `json:"meta,omitempty"`
}
