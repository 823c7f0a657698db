package dog

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/kennelworks/kennel/memory/inmemory"
)

func managerAt(t *testing.T, start time.Time) (*StateManager, *time.Time) {
	t.Helper()
	now := start
	m := &StateManager{store: inmemory.NewStore(), now: func() time.Time { return now }}
	m.state = NewState(start)
	return m, &now
}

func TestTick_AppliesTimeDecay(t *testing.T) {
	start := time.Date(2025, 10, 12, 8, 0, 0, 0, time.UTC)
	m, now := managerAt(t, start)

	*now = start.Add(10 * time.Minute)
	m.Tick()

	s := m.Snapshot()
	if s.Hunger != 40 { // 20 + 10min * 2.0
		t.Fatalf("hunger after 10min = %v, want 40", s.Hunger)
	}
	if s.Thirst != 35 { // 20 + 10min * 1.5
		t.Fatalf("thirst after 10min = %v, want 35", s.Thirst)
	}
	if s.Fatigue != 30 { // 20 + 10min * 1.0
		t.Fatalf("fatigue after 10min = %v, want 30", s.Fatigue)
	}
	if s.Boredom != 45 { // 30 + 10min * 1.5
		t.Fatalf("boredom after 10min = %v, want 45", s.Boredom)
	}
	if s.Happiness != 70 { // needs not yet critical
		t.Fatalf("happiness after 10min = %v, want 70", s.Happiness)
	}
}

func TestTick_UnmetNeedsLowerHappiness(t *testing.T) {
	start := time.Date(2025, 10, 12, 8, 0, 0, 0, time.UTC)
	m, now := managerAt(t, start)
	m.state.Hunger = 90

	*now = start.Add(4 * time.Minute)
	m.Tick()

	if got := m.Snapshot().Happiness; got != 68 { // 70 - 4min * 0.5
		t.Fatalf("happiness = %v, want 68", got)
	}
}

func TestModify_ClampsToRange(t *testing.T) {
	m, _ := managerAt(t, time.Now())
	ctx := context.Background()

	m.Modify(ctx, Delta{Hunger: -100})
	if got := m.Snapshot().Hunger; got != 0 {
		t.Fatalf("hunger = %v, want clamped to 0", got)
	}
	m.Modify(ctx, Delta{Happiness: 100})
	if got := m.Snapshot().Happiness; got != 100 {
		t.Fatalf("happiness = %v, want clamped to 100", got)
	}
}

func TestStatePersistsThroughStore(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()

	m1 := NewStateManager(ctx, store)
	m1.Modify(ctx, Delta{Hunger: 30, Happiness: -20})
	want := m1.Snapshot()

	m2 := NewStateManager(ctx, store)
	got := m2.Snapshot()
	if got.Hunger != want.Hunger || got.Happiness != want.Happiness {
		t.Fatalf("reloaded state %+v, want %+v", got, want)
	}
}

// inmemStore aliases inmemory.Store so failingStore can embed it without the
// field name colliding with its Store method override.
type inmemStore = inmemory.Store

// failingStore rejects every write so persistence failures are observable.
type failingStore struct {
	*inmemStore
}

func (f *failingStore) Store(ctx context.Context, key string, value interface{}) error {
	return errors.New("connection reset by peer")
}

func TestModify_LogsSaveFailure(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(orig) })

	m := &StateManager{store: &failingStore{inmemory.NewStore()}, now: time.Now}
	m.state = NewState(time.Now())
	m.Modify(context.Background(), Delta{Hunger: -10})

	if !strings.Contains(buf.String(), "failed to save dog state") {
		t.Fatalf("expected save failure logged, got %q", buf.String())
	}
	// The in-memory change still lands even when persistence fails.
	if got := m.Snapshot().Hunger; got != 10 {
		t.Fatalf("hunger = %v, want 10", got)
	}
}

func TestDescription_LogsSaveFailure(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(orig) })

	m := &StateManager{store: &failingStore{inmemory.NewStore()}, now: time.Now}
	m.state = NewState(time.Now())
	desc := m.Description(context.Background())

	if !strings.Contains(buf.String(), "failed to save dog state") {
		t.Fatalf("expected save failure logged, got %q", buf.String())
	}
	if !strings.Contains(desc, "当前内部状态:") {
		t.Fatalf("expected state header in %q", desc)
	}
}

func TestDescription_NamesNeeds(t *testing.T) {
	m, _ := managerAt(t, time.Now())
	m.state.Hunger = 80
	m.state.Boredom = 50

	desc := m.Description(context.Background())
	if !strings.Contains(desc, "非常饿") {
		t.Fatalf("expected hungry marker in %q", desc)
	}
	if !strings.Contains(desc, "有点无聊") {
		t.Fatalf("expected bored marker in %q", desc)
	}
	if !strings.Contains(desc, "当前内部状态:") {
		t.Fatalf("expected state header in %q", desc)
	}
}

func TestStatusText_Warnings(t *testing.T) {
	s := State{Hunger: 80, Thirst: 20, Fatigue: 20, Boredom: 30, Happiness: 75}
	text := s.StatusText()
	if !strings.Contains(text, "饿了!") {
		t.Fatalf("expected hunger warning in %q", text)
	}
	if !strings.Contains(text, "😊") {
		t.Fatalf("expected happy mood in %q", text)
	}
}
