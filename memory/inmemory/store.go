// Package inmemory backs the memory interfaces with process-local maps. It is
// the default store for tests and single-process agents; nothing survives a
// restart.
package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kennelworks/kennel/memory"
)

// Store is a mutex-guarded map. Values are held as-is, without the JSON
// round-trip persistent backends do.
type Store struct {
	mu   sync.RWMutex
	data map[string]interface{}
}

func NewStore() *Store {
	return &Store{data: make(map[string]interface{})}
}

func (s *Store) Store(ctx context.Context, key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *Store) Retrieve(ctx context.Context, key string) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("key %s not found", key)
	}
	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]interface{})
	return nil
}

// kvStore aliases Store so ConversationStore can embed it without the field
// name shadowing the promoted Store method.
type kvStore = Store

// ConversationStore layers typed per-session histories on top of Store.
// Histories live in their own map rather than as interface{} values, so
// GetMessages never has to type-assert.
type ConversationStore struct {
	kvStore
	convMu   sync.RWMutex
	sessions map[string][]memory.Message
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		kvStore:  Store{data: make(map[string]interface{})},
		sessions: make(map[string][]memory.Message),
	}
}

func (cs *ConversationStore) AppendMessage(ctx context.Context, sessionID string, role, content string) error {
	cs.convMu.Lock()
	defer cs.convMu.Unlock()
	cs.sessions[sessionID] = append(cs.sessions[sessionID], memory.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Unix(),
	})
	return nil
}

// GetMessages returns a copy; callers can hold it across later appends.
func (cs *ConversationStore) GetMessages(ctx context.Context, sessionID string) ([]memory.Message, error) {
	cs.convMu.RLock()
	defer cs.convMu.RUnlock()
	messages := cs.sessions[sessionID]
	out := make([]memory.Message, len(messages))
	copy(out, messages)
	return out, nil
}

func (cs *ConversationStore) ClearSession(ctx context.Context, sessionID string) error {
	cs.convMu.Lock()
	defer cs.convMu.Unlock()
	delete(cs.sessions, sessionID)
	return nil
}

// Clear wipes both the key/value data and every session history.
func (cs *ConversationStore) Clear(ctx context.Context) error {
	if err := cs.kvStore.Clear(ctx); err != nil {
		return err
	}
	cs.convMu.Lock()
	defer cs.convMu.Unlock()
	cs.sessions = make(map[string][]memory.Message)
	return nil
}

var _ memory.Store = (*Store)(nil)
var _ memory.ConversationStore = (*ConversationStore)(nil)
