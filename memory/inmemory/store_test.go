package inmemory

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/kennelworks/kennel/memory"
)

func TestStore_StoreRetrieveDelete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Store(ctx, "dog", map[string]int{"hunger": 30}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	v, err := s.Retrieve(ctx, "dog")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if v.(map[string]int)["hunger"] != 30 {
		t.Errorf("unexpected value: %v", v)
	}

	if err := s.Delete(ctx, "dog"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Retrieve(ctx, "dog"); err == nil {
		t.Error("Retrieve() after delete should fail")
	}
}

func TestStore_RetrieveMissing(t *testing.T) {
	s := NewStore()
	if _, err := s.Retrieve(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestStore_ListAndClear(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	for _, k := range []string{"dog", "conversation", "mood"} {
		if err := s.Store(ctx, k, k); err != nil {
			t.Fatalf("Store(%s) error = %v", k, err)
		}
	}

	keys, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	sort.Strings(keys)
	want := []string{"conversation", "dog", "mood"}
	if len(keys) != len(want) {
		t.Fatalf("List() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("List() = %v, want %v", keys, want)
		}
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	keys, _ = s.List(ctx)
	if len(keys) != 0 {
		t.Errorf("expected empty store after Clear, got %v", keys)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func(id byte) {
			defer wg.Done()
			key := "key-" + string('a'+id)
			for j := 0; j < 100; j++ {
				if err := s.Store(ctx, key, j); err != nil {
					t.Errorf("Store: %v", err)
					return
				}
			}
		}(byte(i))
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := s.List(ctx); err != nil {
					t.Errorf("List: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	keys, _ := s.List(ctx)
	if len(keys) != 5 {
		t.Errorf("expected 5 keys, got %d", len(keys))
	}
}

func TestConversationStore_AppendOrder(t *testing.T) {
	cs := NewConversationStore()
	ctx := context.Background()

	turns := []struct{ role, content string }{
		{"user", "坐下"},
		{"assistant", "汪！我坐下了。"},
		{"user", "好狗狗"},
	}
	for _, turn := range turns {
		if err := cs.AppendMessage(ctx, "leash-1", turn.role, turn.content); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}

	msgs, err := cs.GetMessages(ctx, "leash-1")
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(msgs) != len(turns) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(turns))
	}
	for i, turn := range turns {
		if msgs[i].Role != turn.role || msgs[i].Content != turn.content {
			t.Errorf("message %d = %s/%s, want %s/%s", i, msgs[i].Role, msgs[i].Content, turn.role, turn.content)
		}
		if msgs[i].Timestamp <= 0 {
			t.Errorf("message %d has no timestamp", i)
		}
	}
}

func TestConversationStore_UnknownSessionIsEmpty(t *testing.T) {
	cs := NewConversationStore()
	msgs, err := cs.GetMessages(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty history, got %d messages", len(msgs))
	}
}

func TestConversationStore_GetMessagesReturnsCopy(t *testing.T) {
	cs := NewConversationStore()
	ctx := context.Background()

	if err := cs.AppendMessage(ctx, "s", "user", "摸摸头"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	msgs, _ := cs.GetMessages(ctx, "s")
	msgs[0].Content = "mutated"

	again, _ := cs.GetMessages(ctx, "s")
	if again[0].Content != "摸摸头" {
		t.Errorf("mutation of returned slice leaked into the store: %q", again[0].Content)
	}
}

func TestConversationStore_SessionsIsolated(t *testing.T) {
	cs := NewConversationStore()
	ctx := context.Background()

	if err := cs.AppendMessage(ctx, "walk", "user", "出门散步"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if err := cs.AppendMessage(ctx, "walk", "assistant", "太好了！"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if err := cs.AppendMessage(ctx, "dinner", "user", "开饭了"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	if err := cs.ClearSession(ctx, "walk"); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}

	walk, _ := cs.GetMessages(ctx, "walk")
	if len(walk) != 0 {
		t.Errorf("walk session should be empty, got %d", len(walk))
	}
	dinner, _ := cs.GetMessages(ctx, "dinner")
	if len(dinner) != 1 || dinner[0].Content != "开饭了" {
		t.Errorf("dinner session disturbed: %+v", dinner)
	}
}

func TestConversationStore_ClearWipesEverything(t *testing.T) {
	cs := NewConversationStore()
	ctx := context.Background()

	if err := cs.Store(ctx, "dog", "state"); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := cs.AppendMessage(ctx, "s", "user", "hi"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	if err := cs.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if _, err := cs.Retrieve(ctx, "dog"); err == nil {
		t.Error("key/value data survived Clear")
	}
	msgs, _ := cs.GetMessages(ctx, "s")
	if len(msgs) != 0 {
		t.Errorf("session history survived Clear: %d messages", len(msgs))
	}
}

func TestConversationStore_ConcurrentAppends(t *testing.T) {
	cs := NewConversationStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				role := "user"
				if j%2 == 1 {
					role = "assistant"
				}
				if err := cs.AppendMessage(ctx, "shared", role, "汪"); err != nil {
					t.Errorf("AppendMessage: %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 30; j++ {
			if _, err := cs.GetMessages(ctx, "shared"); err != nil {
				t.Errorf("GetMessages: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	msgs, err := cs.GetMessages(ctx, "shared")
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(msgs) != 30 {
		t.Errorf("expected 30 messages, got %d", len(msgs))
	}
}

func TestInterfaces(t *testing.T) {
	var _ memory.Store = (*Store)(nil)
	var _ memory.Store = (*ConversationStore)(nil)
	var _ memory.ConversationStore = (*ConversationStore)(nil)
}
