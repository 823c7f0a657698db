package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics is the sink for request, token, and error counters. The prom
// subpackage provides a Prometheus-text implementation; NoOpMetrics is the
// default.
type Metrics interface {
	IncrementRequests(labels map[string]string)
	RecordLatency(duration time.Duration, labels map[string]string)
	IncrementTokensUsed(tokens int, labels map[string]string)
	RecordError(errorType string, labels map[string]string)

	// SetActiveAgents sets the active-agent gauge.
	SetActiveAgents(count int)
}

// NoOpMetrics discards every observation.
type NoOpMetrics struct{}

func (n *NoOpMetrics) IncrementRequests(labels map[string]string)                 {}
func (n *NoOpMetrics) RecordLatency(duration time.Duration, labels map[string]string) {}
func (n *NoOpMetrics) IncrementTokensUsed(tokens int, labels map[string]string)   {}
func (n *NoOpMetrics) RecordError(errorType string, labels map[string]string)     {}
func (n *NoOpMetrics) SetActiveAgents(count int)                                  {}

// DefaultMetrics aggregates totals in memory, ignoring labels. Suitable for
// development and tests.
type DefaultMetrics struct {
	requests     atomic.Int64
	tokensUsed   atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
	activeAgents atomic.Int64

	mu     sync.Mutex
	errors map[string]int64
}

func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{errors: make(map[string]int64)}
}

func (m *DefaultMetrics) IncrementRequests(labels map[string]string) {
	m.requests.Add(1)
}

func (m *DefaultMetrics) RecordLatency(duration time.Duration, labels map[string]string) {
	m.totalLatency.Add(int64(duration))
}

func (m *DefaultMetrics) IncrementTokensUsed(tokens int, labels map[string]string) {
	m.tokensUsed.Add(int64(tokens))
}

func (m *DefaultMetrics) RecordError(errorType string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorType]++
}

func (m *DefaultMetrics) SetActiveAgents(count int) {
	m.activeAgents.Store(int64(count))
}

// GetStats returns a snapshot of the accumulated totals.
func (m *DefaultMetrics) GetStats() map[string]interface{} {
	m.mu.Lock()
	errs := make(map[string]int64, len(m.errors))
	for k, v := range m.errors {
		errs[k] = v
	}
	m.mu.Unlock()

	return map[string]interface{}{
		"requests":      m.requests.Load(),
		"total_latency": time.Duration(m.totalLatency.Load()).String(),
		"tokens_used":   m.tokensUsed.Load(),
		"errors":        errs,
		"active_agents": int(m.activeAgents.Load()),
	}
}

var (
	_ Metrics = (*NoOpMetrics)(nil)
	_ Metrics = (*DefaultMetrics)(nil)
)
