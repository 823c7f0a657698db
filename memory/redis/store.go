//go:build adapters_redis

// Package redis backs the memory interfaces with a Redis instance. Values are
// stored as JSON strings; conversation histories as lists, one message per
// element. All keys share an optional prefix so several agents can point at
// the same database.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kennelworks/kennel/memory"
	rds "github.com/redis/go-redis/v9"
)

// scanKeys collects every key matching pattern. SCAN, not KEYS, so a large
// keyspace does not block the server.
func scanKeys(ctx context.Context, client *rds.Client, pattern string) ([]string, error) {
	var cursor uint64
	keys := []string{}
	for {
		batch, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func deleteAll(ctx context.Context, client *rds.Client, pattern string) error {
	keys, err := scanKeys(ctx, client, pattern)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return client.Del(ctx, keys...).Err()
}

// Store implements memory.Store over plain Redis strings.
type Store struct {
	client *rds.Client
	ttl    time.Duration
	prefix string
}

func NewStore(client *rds.Client, ttl time.Duration, prefix string) *Store {
	return &Store{client: client, ttl: ttl, prefix: prefix}
}

func (s *Store) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *Store) pattern() string {
	if s.prefix == "" {
		return "*"
	}
	return s.prefix + ":*"
}

func (s *Store) Store(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), b, s.ttl).Err()
}

func (s *Store) Retrieve(ctx context.Context, key string) (interface{}, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, rds.Nil) {
			return nil, fmt.Errorf("key %s not found", key)
		}
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(val, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// List returns full Redis keys, prefix included.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return scanKeys(ctx, s.client, s.pattern())
}

func (s *Store) Clear(ctx context.Context) error {
	return deleteAll(ctx, s.client, s.pattern())
}

var _ memory.Store = (*Store)(nil)

// ConversationStore keeps each session's history in a Redis list, so appends
// are O(1) and never rewrite the whole conversation.
type ConversationStore struct {
	client *rds.Client
	prefix string
	ttl    time.Duration
}

func NewConversationStore(client *rds.Client, prefix string, ttl time.Duration) *ConversationStore {
	return &ConversationStore{client: client, prefix: prefix, ttl: ttl}
}

func (cs *ConversationStore) convKey(sessionID string) string {
	if cs.prefix == "" {
		return "conversation:" + sessionID
	}
	return cs.prefix + ":conversation:" + sessionID
}

func (cs *ConversationStore) Store(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return cs.client.Set(ctx, cs.convKey(key), b, cs.ttl).Err()
}

func (cs *ConversationStore) Retrieve(ctx context.Context, key string) (interface{}, error) {
	val, err := cs.client.Get(ctx, cs.convKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, rds.Nil) {
			return nil, fmt.Errorf("key %s not found", key)
		}
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(val, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (cs *ConversationStore) Delete(ctx context.Context, key string) error {
	return cs.client.Del(ctx, cs.convKey(key)).Err()
}

func (cs *ConversationStore) List(ctx context.Context) ([]string, error) {
	return scanKeys(ctx, cs.client, cs.convKey("*"))
}

func (cs *ConversationStore) Clear(ctx context.Context) error {
	return deleteAll(ctx, cs.client, cs.convKey("*"))
}

func (cs *ConversationStore) AppendMessage(ctx context.Context, sessionID string, role, content string) error {
	msg := memory.Message{Role: role, Content: content, Timestamp: time.Now().Unix()}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := cs.convKey(sessionID)
	if err := cs.client.RPush(ctx, key, b).Err(); err != nil {
		return err
	}
	// TTL applies to the whole session, refreshed on every append.
	if cs.ttl > 0 {
		return cs.client.Expire(ctx, key, cs.ttl).Err()
	}
	return nil
}

func (cs *ConversationStore) GetMessages(ctx context.Context, sessionID string) ([]memory.Message, error) {
	vals, err := cs.client.LRange(ctx, cs.convKey(sessionID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, rds.Nil) {
			return []memory.Message{}, nil
		}
		return nil, err
	}
	msgs := make([]memory.Message, 0, len(vals))
	for _, v := range vals {
		var m memory.Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (cs *ConversationStore) ClearSession(ctx context.Context, sessionID string) error {
	return cs.client.Del(ctx, cs.convKey(sessionID)).Err()
}

var _ memory.ConversationStore = (*ConversationStore)(nil)
