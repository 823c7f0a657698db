//go:build adapters_redis

package redis

import (
	"context"
	"testing"
	"time"

	rds "github.com/redis/go-redis/v9"
)

// newTestClient connects to a local Redis and skips the test when none is
// running, so the suite stays green on machines without one.
func newTestClient(t *testing.T) *rds.Client {
	t.Helper()
	client := rds.NewClient(&rds.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newTestClient(t), time.Minute, "kennel-test")
	t.Cleanup(func() { _ = s.Clear(ctx) })

	if err := s.Store(ctx, "dog", map[string]interface{}{"name": "旺财", "hunger": 30}); err != nil {
		t.Fatalf("store: %v", err)
	}

	v, err := s.Retrieve(ctx, "dog")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	got, ok := v.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map after JSON round trip, got %T", v)
	}
	if got["name"] != "旺财" {
		t.Errorf("name = %v, want 旺财", got["name"])
	}

	if _, err := s.Retrieve(ctx, "absent"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestStore_PrefixScopesListing(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	a := NewStore(client, time.Minute, "kennel-test-a")
	b := NewStore(client, time.Minute, "kennel-test-b")
	t.Cleanup(func() {
		_ = a.Clear(ctx)
		_ = b.Clear(ctx)
	})

	if err := a.Store(ctx, "only-in-a", 1); err != nil {
		t.Fatalf("store: %v", err)
	}
	keys, err := b.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, k := range keys {
		if k == "kennel-test-a:only-in-a" {
			t.Errorf("prefix b listed a's key: %v", keys)
		}
	}
}

func TestConversationStore_AppendAndClear(t *testing.T) {
	ctx := context.Background()
	cs := NewConversationStore(newTestClient(t), "kennel-test", time.Minute)
	t.Cleanup(func() { _ = cs.Clear(ctx) })

	if err := cs.AppendMessage(ctx, "walk", "user", "出门散步"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := cs.AppendMessage(ctx, "walk", "assistant", "太好了！"); err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := cs.GetMessages(ctx, "walk")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "出门散步" {
		t.Errorf("first message = %+v", msgs[0])
	}

	if err := cs.ClearSession(ctx, "walk"); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	msgs, err = cs.GetMessages(ctx, "walk")
	if err != nil {
		t.Fatalf("get after clear: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty history after clear, got %d", len(msgs))
	}
}
