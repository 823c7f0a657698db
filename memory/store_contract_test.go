package memory_test

import (
	"context"
	"testing"

	"github.com/kennelworks/kennel/memory"
	"github.com/kennelworks/kennel/memory/inmemory"
)

// exerciseStore runs the behavior every memory.Store implementation must
// share, whatever its backend.
func exerciseStore(t *testing.T, s memory.Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.Store(ctx, "dog", "旺财"); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	v, err := s.Retrieve(ctx, "dog")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if v.(string) != "旺财" {
		t.Fatalf("Retrieve() = %v, want 旺财", v)
	}

	keys, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("List() = %v, want one key", keys)
	}

	if err := s.Delete(ctx, "dog"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Retrieve(ctx, "dog"); err == nil {
		t.Fatal("Retrieve() after Delete should fail")
	}
	// Deleting again stays quiet.
	if err := s.Delete(ctx, "dog"); err != nil {
		t.Fatalf("repeated Delete() error = %v", err)
	}

	if err := s.Store(ctx, "mood", "开心"); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	keys, _ = s.List(ctx)
	if len(keys) != 0 {
		t.Fatalf("List() after Clear = %v, want empty", keys)
	}
}

// exerciseConversations does the same for memory.ConversationStore.
func exerciseConversations(t *testing.T, cs memory.ConversationStore) {
	t.Helper()
	ctx := context.Background()

	if err := cs.AppendMessage(ctx, "leash", "user", "坐下"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if err := cs.AppendMessage(ctx, "leash", "assistant", "汪！"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	msgs, err := cs.GetMessages(ctx, "leash")
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("GetMessages() returned %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("roles out of order: %+v", msgs)
	}

	if err := cs.ClearSession(ctx, "leash"); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	msgs, err = cs.GetMessages(ctx, "leash")
	if err != nil {
		t.Fatalf("GetMessages() after clear error = %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("history survived ClearSession: %+v", msgs)
	}
}

func TestStoreContract_InMemory(t *testing.T) {
	exerciseStore(t, inmemory.NewStore())
}

func TestConversationContract_InMemory(t *testing.T) {
	exerciseConversations(t, inmemory.NewConversationStore())
}
