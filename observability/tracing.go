package observability

import (
	"context"
	"sync"
	"time"
)

// Tracer creates and recovers spans. Implementations are swapped in through
// SetTracer; everything else in the module talks to the package-level
// TracerImpl.
type Tracer interface {
	// StartSpan opens a span and returns a context carrying it.
	StartSpan(ctx context.Context, name string) (Span, context.Context)

	// SpanFromContext returns the active span, or a no-op span when the
	// context carries none.
	SpanFromContext(ctx context.Context) Span
}

// Span is one timed unit of work.
type Span interface {
	SetAttribute(key string, value interface{})
	SetStatus(code StatusCode, message string)
	AddEvent(name string, attributes map[string]interface{})
	End()
	Context() context.Context
}

// StatusCode mirrors the OTel span status model.
type StatusCode int

const (
	StatusCodeUnset StatusCode = iota
	StatusCodeOk
	StatusCodeError
)

// Attribute keys used across the module, loosely following the OTel HTTP and
// GenAI semantic conventions.
const (
	AttrHTTPMethod   = "http.method"
	AttrHTTPRoute    = "http.route"
	AttrHTTPStatus   = "http.status_code"
	AttrRequestID    = "request.id"
	AttrProvider     = "genai.provider"
	AttrModel        = "genai.model"
	AttrFinishReason = "genai.finish_reason"
	AttrToolName     = "genai.tool.name"
	AttrTokensInput  = "genai.tokens.input"
	AttrTokensOutput = "genai.tokens.output"
)

// Package-level implementations, no-ops until something swaps them in.
var (
	TracerImpl  Tracer  = &NoOpTracer{}
	MetricsImpl Metrics = &NoOpMetrics{}
)

// SetTracer swaps the package-level tracer.
func SetTracer(t Tracer) { TracerImpl = t }

// SetMetrics swaps the package-level metrics sink.
func SetMetrics(m Metrics) { MetricsImpl = m }

type spanContextKey struct{}

// NoOpTracer discards all spans.
type NoOpTracer struct{}

func (t *NoOpTracer) StartSpan(ctx context.Context, name string) (Span, context.Context) {
	return &NoOpSpan{}, ctx
}

func (t *NoOpTracer) SpanFromContext(ctx context.Context) Span { return &NoOpSpan{} }

// NoOpSpan absorbs every call.
type NoOpSpan struct{}

func (s *NoOpSpan) SetAttribute(key string, value interface{})               {}
func (s *NoOpSpan) SetStatus(code StatusCode, message string)                {}
func (s *NoOpSpan) AddEvent(name string, attributes map[string]interface{})  {}
func (s *NoOpSpan) End()                                                     {}
func (s *NoOpSpan) Context() context.Context                                 { return context.Background() }

// DefaultTracer records completed spans in memory. Useful for development and
// tests; not meant as a production exporter.
type DefaultTracer struct {
	mu    sync.Mutex
	spans []SpanData
}

// SpanData is a finished span as recorded by DefaultTracer.
type SpanData struct {
	Name       string                 `json:"name"`
	StartTime  time.Time              `json:"start_time"`
	EndTime    time.Time              `json:"end_time"`
	Duration   time.Duration          `json:"duration"`
	Status     StatusCode             `json:"status"`
	Message    string                 `json:"message"`
	Attributes map[string]interface{} `json:"attributes"`
	Events     []Event                `json:"events"`
}

// Event is a point-in-time annotation inside a span.
type Event struct {
	Name       string                 `json:"name"`
	Time       time.Time              `json:"time"`
	Attributes map[string]interface{} `json:"attributes"`
}

func NewDefaultTracer() *DefaultTracer {
	return &DefaultTracer{}
}

func (t *DefaultTracer) StartSpan(ctx context.Context, name string) (Span, context.Context) {
	span := &DefaultSpan{
		tracer:     t,
		name:       name,
		startTime:  time.Now(),
		attributes: make(map[string]interface{}),
	}
	return span, context.WithValue(ctx, spanContextKey{}, span)
}

func (t *DefaultTracer) SpanFromContext(ctx context.Context) Span {
	if span, ok := ctx.Value(spanContextKey{}).(Span); ok {
		return span
	}
	return &NoOpSpan{}
}

// GetSpans returns a copy of every span recorded so far.
func (t *DefaultTracer) GetSpans() []SpanData {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SpanData, len(t.spans))
	copy(out, t.spans)
	return out
}

func (t *DefaultTracer) record(data SpanData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = append(t.spans, data)
}

// DefaultSpan buffers its data until End, then hands it to the tracer. Calls
// after End are ignored.
type DefaultSpan struct {
	tracer     *DefaultTracer
	name       string
	startTime  time.Time
	status     StatusCode
	message    string
	attributes map[string]interface{}
	events     []Event
	ended      bool
}

func (s *DefaultSpan) SetAttribute(key string, value interface{}) {
	if s.ended {
		return
	}
	s.attributes[key] = value
}

func (s *DefaultSpan) SetStatus(code StatusCode, message string) {
	if s.ended {
		return
	}
	s.status = code
	s.message = message
}

func (s *DefaultSpan) AddEvent(name string, attributes map[string]interface{}) {
	if s.ended {
		return
	}
	s.events = append(s.events, Event{
		Name:       name,
		Time:       time.Now(),
		Attributes: attributes,
	})
}

func (s *DefaultSpan) End() {
	if s.ended {
		return
	}
	s.ended = true
	end := time.Now()
	s.tracer.record(SpanData{
		Name:       s.name,
		StartTime:  s.startTime,
		EndTime:    end,
		Duration:   end.Sub(s.startTime),
		Status:     s.status,
		Message:    s.message,
		Attributes: s.attributes,
		Events:     s.events,
	})
}

func (s *DefaultSpan) Context() context.Context {
	return context.WithValue(context.Background(), spanContextKey{}, s)
}

var (
	_ Tracer = (*NoOpTracer)(nil)
	_ Tracer = (*DefaultTracer)(nil)
	_ Span   = (*NoOpSpan)(nil)
	_ Span   = (*DefaultSpan)(nil)
)
