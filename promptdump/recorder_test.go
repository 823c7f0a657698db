package promptdump

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kennelworks/kennel/llm"
)

var fixedTime = time.Date(2025, 10, 12, 9, 30, 0, 123000000, time.UTC)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r := New(filepath.Join(t.TempDir(), "prompt_logs"))
	r.now = func() time.Time { return fixedTime }
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func readArtifact(t *testing.T, r *Recorder) string {
	t.Helper()
	b, err := os.ReadFile(r.Path())
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	return string(b)
}

func TestRecord_SequenceNumbers(t *testing.T) {
	r := newTestRecorder(t)
	for i := 0; i < 5; i++ {
		r.Record("deepseek-chat", []Message{{Role: "user", Content: "hi"}}, nil, "ok", nil, Usage{})
	}
	got := readArtifact(t, r)
	for i := 1; i <= 5; i++ {
		want := fmt.Sprintf("=== Prompt Call #%d ===", i)
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in artifact", want)
		}
	}
	if n := strings.Count(got, "=== Prompt Call #"); n != 5 {
		t.Fatalf("expected 5 records, found %d", n)
	}
}

func TestRecord_ConcurrentCallersDontInterleave(t *testing.T) {
	r := newTestRecorder(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record("deepseek-chat", []Message{{Role: "user", Content: "并发"}}, nil, "ok", nil, Usage{1, 1, 2})
		}()
	}
	wg.Wait()

	got := readArtifact(t, r)
	if n := strings.Count(got, "=== Prompt Call #"); n != 20 {
		t.Fatalf("expected 20 records, found %d", n)
	}
	seen := map[int]bool{}
	for _, line := range strings.Split(got, "\n") {
		var seq int
		if _, err := fmt.Sscanf(line, "=== Prompt Call #%d ===", &seq); err == nil {
			if seen[seq] {
				t.Fatalf("duplicate sequence number %d", seq)
			}
			seen[seq] = true
		}
	}
	for i := 1; i <= 20; i++ {
		if !seen[i] {
			t.Fatalf("missing sequence number %d", i)
		}
	}
}

func TestFormat_Deterministic(t *testing.T) {
	msgs := []Message{
		{Role: "system", Content: "You are a helpful assistant"},
		{Role: "user", Content: "写一个秋天为主题的三行诗"},
	}
	tools := []llm.Tool{{Type: "function", Function: llm.ToolFunction{Name: "bark", Description: "Dog barks"}}}
	calls := []llm.ToolCall{{ID: "1", Type: "function", Function: llm.Function{Name: "bark", Arguments: "{}"}}}

	a := formatRecord(3, fixedTime, "deepseek-chat", msgs, tools, "汪", calls, Usage{10, 5, 15})
	b := formatRecord(3, fixedTime, "deepseek-chat", msgs, tools, "汪", calls, Usage{10, 5, 15})
	if a != b {
		t.Fatalf("formatting is not deterministic:\n%q\n%q", a, b)
	}
}

func TestRecord_DirectoryCreationIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompt_logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(dir, "existing.log")
	if err := os.WriteFile(marker, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(dir)
	r.now = func() time.Time { return fixedTime }
	defer r.Close()
	r.Record("deepseek-chat", []Message{{Role: "user", Content: "hi"}}, nil, "ok", nil, Usage{})

	if r.Path() == "" {
		t.Fatal("expected artifact to be created in existing directory")
	}
	if b, err := os.ReadFile(marker); err != nil || string(b) != "keep" {
		t.Fatalf("existing directory contents were disturbed: %v %q", err, b)
	}
}

func TestFormat_TwoMessageBoundary(t *testing.T) {
	got := formatRecord(1, fixedTime, "deepseek-chat", []Message{
		{Role: "system", Content: "You are a helpful assistant"},
		{Role: "user", Content: "你好"},
	}, nil, "你好！", nil, Usage{5, 3, 8})

	if n := strings.Count(got, "\n["); n != 2 {
		t.Fatalf("expected exactly 2 role blocks, found %d:\n%s", n, got)
	}
	if !strings.Contains(got, "[SYSTEM]\nYou are a helpful assistant\n") {
		t.Fatalf("missing system block:\n%s", got)
	}
	if !strings.Contains(got, "[USER]\n你好\n") {
		t.Fatalf("missing user block:\n%s", got)
	}
	if strings.Contains(got, "=== AVAILABLE TOOLS ===") {
		t.Fatalf("tools section must be suppressed when no tools offered:\n%s", got)
	}
}

func TestFormat_ScenarioHaiku(t *testing.T) {
	got := formatRecord(1, fixedTime, "deepseek-chat", []Message{
		{Role: "system", Content: "You are a helpful assistant"},
		{Role: "user", Content: "写一个秋天为主题的三行诗"},
	}, nil, "落叶飘零舞\n金风送爽雁南归\n秋水共长天", nil, Usage{16, 23, 39})

	for _, want := range []string{
		"Model: deepseek-chat",
		"Prompt Tokens: 16",
		"Completion Tokens: 23",
		"Total Tokens: 39",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Tool Calls:") {
		t.Fatalf("no tool-call line expected:\n%s", got)
	}
}

func TestFormat_StructuredToolMessage(t *testing.T) {
	got := formatRecord(2, fixedTime, "deepseek-chat", []Message{
		{Role: "user", Content: "北京在哪里？"},
		{Role: "tool", Content: map[string]string{"assistant": "地理 agent"}},
	}, nil, "", nil, Usage{})

	if !strings.Contains(got, "[TOOL]\n{\"assistant\":\"地理 agent\"}\n") {
		t.Fatalf("structured tool payload not serialized as JSON:\n%s", got)
	}
}

func TestFormat_ContentAndToolCallsOrder(t *testing.T) {
	calls := []llm.ToolCall{{ID: "c1", Type: "function", Function: llm.Function{Name: "get_weather", Arguments: `{"input":"北京"}`}}}
	got := formatRecord(1, fixedTime, "deepseek-chat",
		[]Message{{Role: "user", Content: "北京天气"}}, nil, "我来查一下", calls, Usage{12, 7, 19})

	ci := strings.Index(got, "Content: 我来查一下")
	ti := strings.Index(got, "Tool Calls: ")
	if ci == -1 || ti == -1 {
		t.Fatalf("expected both content and tool-call lines:\n%s", got)
	}
	if ci > ti {
		t.Fatalf("content line must precede tool-call line:\n%s", got)
	}
}

func TestFormat_EmptyResponseSection(t *testing.T) {
	got := formatRecord(1, fixedTime, "deepseek-chat",
		[]Message{{Role: "user", Content: "hi"}}, nil, "", nil, Usage{})
	if !strings.Contains(got, "=== Response ===\n\n=== Token Usage ===") {
		t.Fatalf("empty response should render an empty section:\n%s", got)
	}
}

func TestSerialize_Fallback(t *testing.T) {
	// Channels cannot be marshalled; the raw dump must not panic.
	got := serialize(make(chan int))
	if got == "" {
		t.Fatal("expected a raw fallback dump, got empty string")
	}
}

type recordingMock struct {
	resp *llm.Response
}

func (m *recordingMock) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	return m.resp, nil
}
func (m *recordingMock) Completion(ctx context.Context, prompt string) (*llm.Response, error) {
	return m.resp, nil
}
func (m *recordingMock) Stream(ctx context.Context, req *llm.ChatRequest, out chan<- *llm.Response) error {
	close(out)
	return nil
}
func (m *recordingMock) Model() string          { return "deepseek-chat" }
func (m *recordingMock) Provider() llm.Provider { return llm.ProviderDeepSeek }
func (m *recordingMock) Validate() error        { return nil }

func TestWrapClient_RecordsCompletedCalls(t *testing.T) {
	r := newTestRecorder(t)
	mock := &recordingMock{resp: &llm.Response{
		Content:  "秋叶落",
		Model:    "deepseek-chat",
		Provider: llm.ProviderDeepSeek,
		Usage:    &llm.Usage{InputTokens: 16, OutputTokens: 23, TotalTokens: 39},
	}}
	client := WrapClientWith(mock, r)

	resp, err := client.Chat(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a helpful assistant"},
			{Role: "user", Content: "写一个秋天为主题的三行诗"},
		},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "秋叶落" {
		t.Fatalf("response altered by recorder: %+v", resp)
	}

	got := readArtifact(t, r)
	for _, want := range []string{
		"=== Prompt Call #1 ===",
		"Model: deepseek-chat",
		"[SYSTEM]\nYou are a helpful assistant",
		"[USER]\n写一个秋天为主题的三行诗",
		"Content: 秋叶落",
		"Prompt Tokens: 16",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in artifact:\n%s", want, got)
		}
	}
}

func TestWrapClient_SystemPromptPrepended(t *testing.T) {
	r := newTestRecorder(t)
	mock := &recordingMock{resp: &llm.Response{Content: "ok", Model: "deepseek-chat"}}
	client := WrapClientWith(mock, r)

	_, err := client.Chat(context.Background(), &llm.ChatRequest{
		SystemPrompt: "你是一条狗",
		Messages:     []llm.Message{{Role: "user", Content: "坐下"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	got := readArtifact(t, r)
	si := strings.Index(got, "[SYSTEM]\n你是一条狗")
	ui := strings.Index(got, "[USER]\n坐下")
	if si == -1 || ui == -1 || si > ui {
		t.Fatalf("system prompt must be recorded before user message:\n%s", got)
	}
}
