package observability

import (
	"sync"
	"testing"
	"time"
)

func TestNoOpMetrics_AbsorbsEverything(t *testing.T) {
	var m Metrics = &NoOpMetrics{}
	m.IncrementRequests(nil)
	m.RecordLatency(time.Millisecond, nil)
	m.IncrementTokensUsed(10, nil)
	m.RecordError("x", nil)
	m.SetActiveAgents(1)
}

func TestDefaultMetrics_Totals(t *testing.T) {
	m := NewDefaultMetrics()
	m.IncrementRequests(map[string]string{"path": "/chat"})
	m.IncrementRequests(nil)
	m.RecordLatency(2*time.Millisecond, nil)
	m.IncrementTokensUsed(5, nil)
	m.IncrementTokensUsed(7, nil)
	m.RecordError("tool_error", nil)
	m.RecordError("tool_error", nil)
	m.SetActiveAgents(3)

	s := m.GetStats()
	if s["requests"].(int64) != 2 {
		t.Fatalf("requests = %v", s["requests"])
	}
	if s["tokens_used"].(int64) != 12 {
		t.Fatalf("tokens_used = %v", s["tokens_used"])
	}
	if s["active_agents"].(int) != 3 {
		t.Fatalf("active_agents = %v", s["active_agents"])
	}
	if errs := s["errors"].(map[string]int64); errs["tool_error"] != 2 {
		t.Fatalf("errors = %v", errs)
	}
}

func TestDefaultMetrics_ConcurrentRecording(t *testing.T) {
	m := NewDefaultMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.IncrementRequests(nil)
				m.RecordError("boom", nil)
			}
		}()
	}
	wg.Wait()

	s := m.GetStats()
	if s["requests"].(int64) != 1000 {
		t.Fatalf("requests = %v, want 1000", s["requests"])
	}
	if errs := s["errors"].(map[string]int64); errs["boom"] != 1000 {
		t.Fatalf("errors = %v, want 1000", errs)
	}
}
