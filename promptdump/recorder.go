// Package promptdump writes a human-readable transcript of every model call
// made during a run: the full prompt (system/user/assistant/tool messages),
// the tool schemas offered to the model, the response, and token usage. One
// record per call, appended to a per-run artifact under the output directory.
//
// The recorder is a pure observer. It never alters a request or response, and
// a recorder failure is reported to the process log and swallowed so the
// calling orchestration flow is never disturbed by it.
package promptdump

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kennelworks/kennel/llm"
	obs "github.com/kennelworks/kennel/observability"
)

// DefaultDir is where run artifacts are written unless a Recorder is
// constructed with an explicit directory.
const DefaultDir = "prompt_logs"

const timestampLayout = "2006-01-02 15:04:05.000"

// Usage is the token accounting for a single model call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Message is one conversation entry as submitted to the model. Content is
// usually a string; structured payloads (tool results, handoff directives)
// are rendered as compact JSON.
type Message struct {
	Role    string
	Content any
}

// Recorder appends formatted call records to a single per-run artifact.
// The sequence counter, file handle, and clock are guarded by one mutex so
// records are numbered in completion order and never interleave.
type Recorder struct {
	mu   sync.Mutex
	dir  string
	path string
	file *os.File
	seq  int
	now  func() time.Time
}

// New creates a Recorder that writes under dir. Nothing is created on disk
// until the first call to Record.
func New(dir string) *Recorder {
	if dir == "" {
		dir = DefaultDir
	}
	return &Recorder{dir: dir, now: time.Now}
}

// Default is the process-wide recorder, following the same swappable-global
// convention as observability.TracerImpl.
var Default = New(DefaultDir)

// Record appends one call record to the process-wide recorder.
func Record(model string, messages []Message, tools []llm.Tool, content string, toolCalls []llm.ToolCall, usage Usage) {
	Default.Record(model, messages, tools, content, toolCalls, usage)
}

// Record formats and appends a single call record, assigning it the next
// sequence number. Failures to create the directory or append to the
// artifact are logged once and swallowed; they must never propagate into
// the model-call path.
func (r *Recorder) Record(model string, messages []Message, tools []llm.Tool, content string, toolCalls []llm.ToolCall, usage Usage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			log.Printf("promptdump: cannot open run artifact: %v", err)
			return
		}
	}

	r.seq++
	record := formatRecord(r.seq, r.now(), model, messages, tools, content, toolCalls, usage)
	if _, err := r.file.WriteString(record); err != nil {
		log.Printf("promptdump: write failed for call #%d: %v", r.seq, err)
	}
}

// open creates the output directory (idempotent) and the per-run artifact.
// The artifact name carries both a timestamp and a random suffix so two runs
// starting within the same second cannot collide.
func (r *Recorder) open() error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", r.dir, err)
	}
	name := fmt.Sprintf("run_%s_%s.log", r.now().Format("20060102_150405"), obs.GenerateRequestID()[:8])
	path := filepath.Join(r.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	r.path = path
	r.file = f
	return nil
}

// Path returns the run artifact path, or "" before the first record.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Close flushes and closes the run artifact. Safe to call when nothing was
// ever recorded.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// formatRecord renders one call record. The output is byte-deterministic for
// a given sequence number, timestamp, and inputs.
func formatRecord(seq int, ts time.Time, model string, messages []Message, tools []llm.Tool, content string, toolCalls []llm.ToolCall, usage Usage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Prompt Call #%d ===\n", seq)
	fmt.Fprintf(&b, "Timestamp: %s\n", ts.Format(timestampLayout))
	fmt.Fprintf(&b, "Model: %s\n", model)

	b.WriteString("\n=== Formatted Prompt ===\n")
	for _, m := range messages {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", strings.ToUpper(m.Role), serialize(m.Content))
	}

	if len(tools) > 0 {
		b.WriteString("\n=== AVAILABLE TOOLS ===\n")
		for _, t := range tools {
			b.WriteString(serialize(t))
			b.WriteByte('\n')
		}
	}

	b.WriteString("\n=== Response ===\n")
	if content != "" {
		fmt.Fprintf(&b, "Content: %s\n", content)
	}
	if len(toolCalls) > 0 {
		fmt.Fprintf(&b, "Tool Calls: %s\n", serialize(toolCalls))
	}

	b.WriteString("\n=== Token Usage ===\n")
	fmt.Fprintf(&b, "Prompt Tokens: %d\n", usage.PromptTokens)
	fmt.Fprintf(&b, "Completion Tokens: %d\n", usage.CompletionTokens)
	fmt.Fprintf(&b, "Total Tokens: %d\n", usage.TotalTokens)

	b.WriteByte('\n')
	return b.String()
}

// serialize renders message or tool payloads to text. Strings pass through
// verbatim, everything else becomes compact JSON, and shapes that cannot be
// marshalled fall back to a raw fmt dump.
func serialize(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case json.RawMessage:
		return string(c)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// FromLLMMessages converts conversation messages into recorder messages.
func FromLLMMessages(msgs []llm.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Message{Role: m.Role, Content: m.Content})
	}
	return out
}
