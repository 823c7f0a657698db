// Package prom exposes the process metrics in Prometheus text format without
// pulling in a client library. Counters and latency sums are aggregated
// in-process and rendered on demand.
package prom

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kennelworks/kennel/observability"
)

// Exporter implements observability.Metrics. Safe for concurrent use; the
// HTTP middleware records from request goroutines while /metrics reads.
type Exporter struct {
	mu       sync.Mutex
	requests map[string]float64
	latency  map[string]float64
	tokens   map[string]float64
	errors   map[string]float64
	active   float64
}

// New creates a new in-process exporter.
func New() *Exporter {
	return &Exporter{
		requests: make(map[string]float64),
		latency:  make(map[string]float64),
		tokens:   make(map[string]float64),
		errors:   make(map[string]float64),
	}
}

// Handler renders the exporter's current state as a /metrics endpoint.
func Handler(e *Exporter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		e.mu.Lock()
		defer e.mu.Unlock()
		writeSeries(w, "kennel_requests_total", e.requests)
		writeSeries(w, "kennel_request_latency_seconds_sum", e.latency)
		writeSeries(w, "kennel_tokens_total", e.tokens)
		writeSeries(w, "kennel_errors_total", e.errors)
		_, _ = w.Write([]byte("kennel_active_agents " + formatFloat(e.active) + "\n"))
	})
}

// writeSeries emits one line per label key, sorted so the exposition is
// stable across scrapes.
func writeSeries(w http.ResponseWriter, name string, series map[string]float64) {
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = w.Write([]byte(name + "{label=\"" + k + "\"} " + formatFloat(series[k]) + "\n"))
	}
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func (e *Exporter) IncrementRequests(labels map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests[labelKey(labels)]++
}

func (e *Exporter) RecordLatency(d time.Duration, labels map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latency[labelKey(labels)] += d.Seconds()
}

func (e *Exporter) IncrementTokensUsed(tokens int, labels map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokens[labelKey(labels)] += float64(tokens)
}

func (e *Exporter) RecordError(errorType string, labels map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := errorType
	if len(labels) > 0 {
		key = key + "|" + labelKey(labels)
	}
	e.errors[key]++
}

func (e *Exporter) SetActiveAgents(count int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = float64(count)
}

// labelKey flattens the label sets the rest of the module emits: path+method
// from the HTTP middleware, direction+model from LLM clients, tool_name from
// the tool registry.
func labelKey(labels map[string]string) string {
	if v, ok := labels["path"]; ok {
		return v + "|" + labels["method"]
	}
	if v, ok := labels["direction"]; ok {
		return v + "|" + labels["model"]
	}
	if v, ok := labels["tool_name"]; ok {
		return v
	}
	return "generic"
}

var _ observability.Metrics = (*Exporter)(nil)
