// Package dog implements a digital-life dog simulation: an internal-needs
// state model and 32 behavior tools the agent calls to act them out. It is
// the scenario behind the examples/dog and examples/dog-web programs.
package dog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/kennelworks/kennel/memory"
)

// State is the dog's internal state. All need values live on a 0-100 scale;
// hunger, thirst, fatigue, and boredom rise over time while happiness reacts
// to interactions and unmet needs.
type State struct {
	Hunger     float64 `json:"hunger"`
	Thirst     float64 `json:"thirst"`
	Fatigue    float64 `json:"fatigue"`
	Boredom    float64 `json:"boredom"`
	Happiness  float64 `json:"happiness"`
	LastUpdate float64 `json:"last_update_time"` // unix seconds
}

// NewState returns the initial state of a content, slightly bored dog.
func NewState(now time.Time) State {
	return State{
		Hunger:     20,
		Thirst:     20,
		Fatigue:    20,
		Boredom:    30,
		Happiness:  70,
		LastUpdate: float64(now.UnixNano()) / float64(time.Second),
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Clamp forces every need back into the 0-100 range.
func (s *State) Clamp() {
	s.Hunger = clamp(s.Hunger)
	s.Thirst = clamp(s.Thirst)
	s.Fatigue = clamp(s.Fatigue)
	s.Boredom = clamp(s.Boredom)
	s.Happiness = clamp(s.Happiness)
}

// StatusText renders the console status banner.
func (s State) StatusText() string {
	warn := func(v float64, label string) string {
		if v > 70 {
			return " ⚠️  (" + label + ")"
		}
		return ""
	}
	mood := "😞"
	if s.Happiness > 70 {
		mood = "😊"
	} else if s.Happiness > 30 {
		mood = "😐"
	}
	var b strings.Builder
	b.WriteString("\n🐕 狗狗状态:\n")
	fmt.Fprintf(&b, "  饥饿值: %.1f/100%s\n", s.Hunger, warn(s.Hunger, "饿了!"))
	fmt.Fprintf(&b, "  口渴值: %.1f/100%s\n", s.Thirst, warn(s.Thirst, "渴了!"))
	fmt.Fprintf(&b, "  疲劳值: %.1f/100%s\n", s.Fatigue, warn(s.Fatigue, "累了!"))
	fmt.Fprintf(&b, "  无聊值: %.1f/100%s\n", s.Boredom, warn(s.Boredom, "无聊!"))
	fmt.Fprintf(&b, "  快乐值: %.1f/100 %s\n", s.Happiness, mood)
	return b.String()
}

// Delta is a relative state change applied by a behavior.
type Delta struct {
	Hunger    float64
	Thirst    float64
	Fatigue   float64
	Boredom   float64
	Happiness float64
}

const stateKey = "dog_state"

// StateManager owns the dog state, applies time-based decay, and persists
// through a memory.Store so the dog remembers how it felt between runs.
type StateManager struct {
	mu    sync.Mutex
	store memory.Store
	state State
	now   func() time.Time
}

// NewStateManager loads the persisted state from store, or starts fresh when
// none exists.
func NewStateManager(ctx context.Context, store memory.Store) *StateManager {
	m := &StateManager{store: store, now: time.Now}
	m.state = m.load(ctx)
	return m
}

func (m *StateManager) load(ctx context.Context) State {
	if m.store != nil {
		if raw, err := m.store.Retrieve(ctx, stateKey); err == nil {
			// Stores hand back either the struct itself or a decoded JSON
			// map; a marshal round-trip covers both.
			if b, err := json.Marshal(raw); err == nil {
				var s State
				if err := json.Unmarshal(b, &s); err == nil && s.LastUpdate > 0 {
					return s
				}
			}
		}
	}
	return NewState(m.now())
}

func (m *StateManager) save(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Store(ctx, stateKey, m.state); err != nil {
		return fmt.Errorf("failed to save dog state: %w", err)
	}
	return nil
}

// Tick advances the state by the wall time elapsed since the last update:
// +2.0 hunger, +1.5 thirst, +1.0 fatigue, and +1.5 boredom per minute, with
// happiness dropping 0.5 per minute while hunger or thirst runs high.
func (m *StateManager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()
}

func (m *StateManager) tickLocked() {
	nowSec := float64(m.now().UnixNano()) / float64(time.Second)
	minutes := (nowSec - m.state.LastUpdate) / 60.0
	if minutes < 0 {
		minutes = 0
	}

	m.state.Hunger += minutes * 2.0
	m.state.Thirst += minutes * 1.5
	m.state.Fatigue += minutes * 1.0
	m.state.Boredom += minutes * 1.5
	if m.state.Hunger > 70 || m.state.Thirst > 70 {
		m.state.Happiness -= minutes * 0.5
	}

	m.state.LastUpdate = nowSec
	m.state.Clamp()
}

// Modify applies a behavior's delta and persists the result.
func (m *StateManager) Modify(ctx context.Context, d Delta) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Hunger += d.Hunger
	m.state.Thirst += d.Thirst
	m.state.Fatigue += d.Fatigue
	m.state.Boredom += d.Boredom
	m.state.Happiness += d.Happiness
	m.state.Clamp()
	if err := m.save(ctx); err != nil {
		log.Printf("dog: %v", err)
	}
}

// Snapshot returns a copy of the current state.
func (m *StateManager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Description advances the clock and renders the state as prompt context for
// the agent.
func (m *StateManager) Description(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()
	if err := m.save(ctx); err != nil {
		log.Printf("dog: %v", err)
	}

	s := m.state
	var needs []string
	switch {
	case s.Hunger > 70:
		needs = append(needs, "非常饿")
	case s.Hunger > 40:
		needs = append(needs, "有点饿")
	}
	switch {
	case s.Thirst > 70:
		needs = append(needs, "非常渴")
	case s.Thirst > 40:
		needs = append(needs, "有点渴")
	}
	switch {
	case s.Fatigue > 80:
		needs = append(needs, "筋疲力尽")
	case s.Fatigue > 50:
		needs = append(needs, "累了")
	}
	switch {
	case s.Boredom > 70:
		needs = append(needs, "非常无聊")
	case s.Boredom > 40:
		needs = append(needs, "有点无聊")
	}
	feeling := "满足"
	if len(needs) > 0 {
		feeling = strings.Join(needs, "、")
	}

	return fmt.Sprintf(`当前内部状态:
- 饥饿值: %.1f/100
- 口渴值: %.1f/100
- 疲劳值: %.1f/100
- 无聊值: %.1f/100
- 快乐值: %.1f/100
- 整体感觉: %s`, s.Hunger, s.Thirst, s.Fatigue, s.Boredom, s.Happiness, feeling)
}
