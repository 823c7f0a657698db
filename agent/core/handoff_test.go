package core

import (
	"context"
	"strings"
	"testing"

	"github.com/kennelworks/kennel/llm"
)

func TestHandoffToolName(t *testing.T) {
	if got := HandoffToolName("地理 agent"); got != "transfer_to_地理_agent" {
		t.Fatalf("unexpected tool name %q", got)
	}
	if got := HandoffToolName("math"); got != "transfer_to_math" {
		t.Fatalf("unexpected tool name %q", got)
	}
}

func TestRun_HandoffSwitchesAgent(t *testing.T) {
	geoLLM := NewMockLLMClient()
	geoLLM.AddResponse("北京是中国的首都。")
	geo := NewChatAgent(ChatConfig{
		Name:   "地理 agent",
		Model:  geoLLM,
		Config: AgentConfig{SystemPrompt: "你是地理专家，回答地理问题。"},
	})

	triageLLM := NewMockLLMClient()
	triageLLM.AddResponseWithToolCalls("", []llm.ToolCall{{
		ID:   "call-1",
		Type: "function",
		Function: llm.Function{
			Name:      HandoffToolName("地理 agent"),
			Arguments: "{}",
		},
	}})
	triage := NewChatAgent(ChatConfig{
		Name:     "分诊 agent",
		Model:    triageLLM,
		Config:   AgentConfig{SystemPrompt: "你是分诊助手，把问题转给合适的专家。", MaxIterations: 3},
		Handoffs: []*ChatAgent{geo},
	})

	result, err := triage.Run(context.Background(), Message{Role: "user", Content: "北京在哪里？"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Content != "北京是中国的首都。" {
		t.Fatalf("expected target agent's answer, got %q", result.Content)
	}

	// Triage call must offer the transfer tool
	calls := triageLLM.GetCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 triage call, got %d", len(calls))
	}
	foundTransfer := false
	for _, tool := range calls[0].Tools {
		if tool.Function.Name == "transfer_to_地理_agent" {
			foundTransfer = true
		}
	}
	if !foundTransfer {
		t.Fatalf("transfer tool not offered: %+v", calls[0].Tools)
	}

	// The target agent sees the handoff acknowledgement and its own prompt
	geoCalls := geoLLM.GetCalls()
	if len(geoCalls) != 1 {
		t.Fatalf("expected 1 call on target agent, got %d", len(geoCalls))
	}
	if geoCalls[0].Messages[0].Content != "你是地理专家，回答地理问题。" {
		t.Fatalf("system prompt not switched: %q", geoCalls[0].Messages[0].Content)
	}
	foundAck := false
	for _, m := range geoCalls[0].Messages {
		if m.Role == "tool" && strings.Contains(m.Content, `{"assistant":"地理 agent"}`) {
			foundAck = true
		}
	}
	if !foundAck {
		t.Fatalf("handoff acknowledgement missing: %+v", geoCalls[0].Messages)
	}
}

func TestRun_HandoffUnknownTargetIgnored(t *testing.T) {
	mock := NewMockLLMClient()
	mock.AddResponseWithToolCalls("", []llm.ToolCall{{
		ID:       "call-1",
		Type:     "function",
		Function: llm.Function{Name: "transfer_to_nobody", Arguments: "{}"},
	}})
	mock.AddResponse("fallback answer")

	agent := NewChatAgent(ChatConfig{
		Name:   "solo",
		Model:  mock,
		Config: AgentConfig{SystemPrompt: "sys", MaxIterations: 2},
	})
	result, err := agent.Run(context.Background(), Message{Role: "user", Content: "hi"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Content != "fallback answer" {
		t.Fatalf("unexpected final: %q", result.Content)
	}
}
