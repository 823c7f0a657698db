//go:build adapters_postgres

// Package postgres persists agent sessions in PostgreSQL, giving the dog a
// durable memory across process restarts.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kennelworks/kennel/memory"
)

// Store implements memory.Store and memory.ConversationStore on top of two
// tables:
//
//	CREATE TABLE IF NOT EXISTS agent_kv (
//	  key text PRIMARY KEY,
//	  value jsonb NOT NULL,
//	  updated_at timestamptz NOT NULL DEFAULT now()
//	);
//	CREATE TABLE IF NOT EXISTS agent_sessions (
//	  id bigserial PRIMARY KEY,
//	  session_id text NOT NULL,
//	  role text NOT NULL,
//	  content text NOT NULL,
//	  created_at timestamptz NOT NULL DEFAULT now()
//	);
//	CREATE INDEX IF NOT EXISTS idx_agent_sessions_session ON agent_sessions (session_id, id);
type Store struct {
	conn *pgx.Conn
}

func New(conn *pgx.Conn) *Store {
	return &Store{conn: conn}
}

// Connect opens a connection and returns a ready Store.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close releases the underlying connection.
func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

func (s *Store) Store(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(ctx,
		"INSERT INTO agent_kv (key, value, updated_at) VALUES ($1,$2,now()) ON CONFLICT (key) DO UPDATE SET value=excluded.value, updated_at=now()",
		key, b)
	return err
}

func (s *Store) Retrieve(ctx context.Context, key string) (interface{}, error) {
	var b []byte
	err := s.conn.QueryRow(ctx, "SELECT value FROM agent_kv WHERE key=$1", key).Scan(&b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("key %s not found", key)
		}
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.conn.Exec(ctx, "DELETE FROM agent_kv WHERE key=$1", key)
	return err
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, "SELECT key FROM agent_kv ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, "TRUNCATE agent_kv")
	return err
}

// AppendMessage implements memory.ConversationStore interface
func (s *Store) AppendMessage(ctx context.Context, sessionID string, role, content string) error {
	_, err := s.conn.Exec(ctx,
		"INSERT INTO agent_sessions (session_id, role, content, created_at) VALUES ($1,$2,$3,$4)",
		sessionID, role, content, time.Now())
	return err
}

// GetMessages implements memory.ConversationStore interface
func (s *Store) GetMessages(ctx context.Context, sessionID string) ([]memory.Message, error) {
	rows, err := s.conn.Query(ctx,
		"SELECT role, content, created_at FROM agent_sessions WHERE session_id=$1 ORDER BY id",
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	msgs := []memory.Message{}
	for rows.Next() {
		var role, content string
		var at time.Time
		if err := rows.Scan(&role, &content, &at); err != nil {
			return nil, err
		}
		msgs = append(msgs, memory.Message{Role: role, Content: content, Timestamp: at.Unix()})
	}
	return msgs, rows.Err()
}

// ClearSession implements memory.ConversationStore interface
func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	_, err := s.conn.Exec(ctx, "DELETE FROM agent_sessions WHERE session_id=$1", sessionID)
	return err
}

var _ memory.Store = (*Store)(nil)
var _ memory.ConversationStore = (*Store)(nil)
