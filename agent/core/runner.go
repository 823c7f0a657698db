package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kennelworks/kennel/llm"
	"github.com/kennelworks/kennel/memory"
	obs "github.com/kennelworks/kennel/observability"
	"github.com/kennelworks/kennel/tools"
)

// ChatAgent is the default implementation of the Agent interface
type ChatAgent struct {
	Name       string
	Model      llm.Client
	Tools      tools.Registry
	Mem        memory.Store
	Config     AgentConfig
	Middleware []Middleware
	Processors []MessageProcessor
	Handoffs   []*ChatAgent
}

// NewChatAgent creates a new ChatAgent with the given configuration
func NewChatAgent(config ChatConfig) *ChatAgent {
	return &ChatAgent{
		Name:       config.Name,
		Model:      config.Model,
		Tools:      config.Tools,
		Mem:        config.Mem,
		Config:     config.Config,
		Middleware: config.Middleware,
		Processors: config.Processors,
		Handoffs:   config.Handoffs,
	}
}

// ChatConfig holds configuration for ChatAgent
type ChatConfig struct {
	Name       string
	Model      llm.Client
	Tools      tools.Registry
	Mem        memory.Store
	Config     AgentConfig
	Middleware []Middleware
	Processors []MessageProcessor
	Handoffs   []*ChatAgent
}

// Run implements the Agent interface
func (a *ChatAgent) Run(ctx context.Context, input Message) (Message, error) {
	// Agent-level span
	span, ctx := obs.TracerImpl.StartSpan(ctx, "agent.run")
	defer span.End()

	if a.Config.Timeout != "" {
		timeout, err := time.ParseDuration(a.Config.Timeout)
		if err != nil {
			span.SetStatus(obs.StatusCodeError, err.Error())
			return Message{}, fmt.Errorf("invalid timeout duration: %w", err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := a.appendToConversation(ctx, input); err != nil {
		return Message{}, err
	}

	history := a.conversationHistory(ctx)
	if a.Mem == nil {
		history = []Message{input}
	}
	for _, p := range a.Processors {
		history = p.Process(ctx, history)
	}

	// The active agent changes on handoff; its instructions occupy the first
	// message and its registry makes up the offered tool set.
	active := a
	messages := []llm.Message{{
		Role:    "system",
		Content: active.Config.SystemPrompt,
	}}
	for _, msg := range history {
		messages = append(messages, llm.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	maxIterations := a.Config.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 1
	}

	var finalResp *llm.Response
	for iter := 0; iter < maxIterations; iter++ {
		req := &llm.ChatRequest{
			Messages: messages,
			Tools:    active.toolDefs(),
		}

		if err := a.beforeLLMCall(ctx, req); err != nil {
			span.SetStatus(obs.StatusCodeError, err.Error())
			return Message{}, err
		}

		response, err := active.Model.Chat(ctx, req)
		if err != nil {
			span.SetStatus(obs.StatusCodeError, err.Error())
			return Message{}, fmt.Errorf("LLM call failed: %w", err)
		}
		a.afterLLMResponse(ctx, response)
		finalResp = response

		if len(response.ToolCalls) > 0 {
			// Append assistant message that triggered the tool calls
			messages = append(messages, llm.Message{Role: "assistant", Content: response.Content})

			for _, tc := range response.ToolCalls {
				toolName := tc.Function.Name

				// Handoff calls switch the active agent for the rest of the run
				if target := active.handoffTarget(toolName); target != nil {
					messages = append(messages, llm.Message{
						Role:       "tool",
						Content:    handoffResult(target),
						ToolCallID: tc.ID,
					})
					span.AddEvent("agent.handoff", map[string]interface{}{"from": active.Name, "to": target.Name})
					active = target
					messages[0].Content = active.Config.SystemPrompt
					continue
				}

				result, ok := active.executeTool(ctx, span, toolName, tc)
				if !ok {
					continue
				}
				messages = append(messages, llm.Message{
					Role:       "tool",
					Content:    result,
					ToolCallID: tc.ID,
				})
			}

			// Continue so the model (or the handoff target) observes the outputs
			continue
		}

		// No tool calls, take this as final answer
		break
	}

	if finalResp == nil {
		span.SetStatus(obs.StatusCodeError, "no response")
		return Message{}, fmt.Errorf("no response from model")
	}

	result := Message{
		Role:    "assistant",
		Content: finalResp.Content,
	}

	if err := a.appendToConversation(ctx, result); err != nil {
		span.SetStatus(obs.StatusCodeError, err.Error())
		return Message{}, err
	}

	a.afterRun(ctx, result)
	span.SetStatus(obs.StatusCodeOk, "")
	return result, nil
}

// toolDefs builds the tool declarations offered to the model: the agent's
// registered tools plus one transfer tool per handoff target.
func (a *ChatAgent) toolDefs() []llm.Tool {
	var defs []llm.Tool
	if a.Tools != nil {
		for _, name := range a.Tools.List() {
			if t, ok := a.Tools.Get(name); ok {
				defs = append(defs, llm.Tool{
					Type: "function",
					Function: llm.ToolFunction{
						Name:        t.Name(),
						Description: t.Description(),
						Parameters:  t.Schema(),
					},
				})
			}
		}
	}
	for _, h := range a.Handoffs {
		defs = append(defs, handoffToolDef(h))
	}
	return defs
}

// executeTool resolves and runs one requested tool call. A missing tool is
// recorded as a span event and skipped; execution errors are fed back to the
// model as tool content.
func (a *ChatAgent) executeTool(ctx context.Context, span obs.Span, toolName string, tc llm.ToolCall) (string, bool) {
	if a.Tools == nil {
		span.AddEvent("tool.not_found", map[string]interface{}{"tool": toolName})
		return "", false
	}
	tool, ok := a.Tools.Get(toolName)
	if !ok {
		span.AddEvent("tool.not_found", map[string]interface{}{"tool": toolName})
		return "", false
	}

	// Parse arguments; support {"input":"..."} or raw string
	inputStr := tc.Function.Arguments
	var argObj map[string]interface{}
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &argObj); err == nil {
		if v, ok := argObj["input"].(string); ok {
			inputStr = v
		}
	}

	if err := a.beforeToolExecute(ctx, tool.Name(), inputStr); err != nil {
		return fmt.Sprintf("error: %v", err), true
	}
	result, err := a.Tools.Execute(ctx, tool.Name(), inputStr)
	a.afterToolExecute(ctx, tool.Name(), result, err)
	if err != nil {
		// Provide error back to model as tool content
		result = fmt.Sprintf("error: %v", err)
	}
	return result, true
}

// appendToConversation stores a message at the end of the session history.
func (a *ChatAgent) appendToConversation(ctx context.Context, msg Message) error {
	if a.Mem == nil {
		return nil
	}
	msgs := a.conversationHistory(ctx)
	msgs = append(msgs, msg)
	if err := a.Mem.Store(ctx, "conversation", msgs); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// conversationHistory reads the session history, tolerating the legacy
// single-message encoding.
func (a *ChatAgent) conversationHistory(ctx context.Context) []Message {
	if a.Mem == nil {
		return nil
	}
	existing, err := a.Mem.Retrieve(ctx, "conversation")
	if err != nil {
		return nil
	}
	switch v := existing.(type) {
	case []Message:
		return v
	case Message:
		return []Message{v}
	}
	return nil
}

// RunStream implements the Agent interface for streaming responses. Partial
// chunks are forwarded as they arrive; when more than one chunk was emitted,
// a final aggregated message follows them.
func (a *ChatAgent) RunStream(ctx context.Context, input Message, output chan<- Message) error {
	defer close(output)

	if err := a.appendToConversation(ctx, input); err != nil {
		return err
	}

	history := a.conversationHistory(ctx)
	if a.Mem == nil {
		history = []Message{input}
	}
	for _, p := range a.Processors {
		history = p.Process(ctx, history)
	}
	messages := []llm.Message{{Role: "system", Content: a.Config.SystemPrompt}}
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	req := &llm.ChatRequest{Messages: messages}

	inner := make(chan *llm.Response, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Model.Stream(ctx, req, inner)
	}()

	forward := func(content string) error {
		select {
		case output <- Message{Role: "assistant", Content: content}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var parts []string
	done := false
	for !done {
		select {
		case resp, ok := <-inner:
			if !ok {
				done = true
				break
			}
			if resp == nil || resp.Content == "" {
				continue
			}
			parts = append(parts, resp.Content)
			if err := forward(resp.Content); err != nil {
				return err
			}
		case err := <-errCh:
			if err != nil {
				return err
			}
			// Stream finished cleanly; drain anything still buffered.
			for resp := range inner {
				if resp == nil || resp.Content == "" {
					continue
				}
				parts = append(parts, resp.Content)
				if err := forward(resp.Content); err != nil {
					return err
				}
			}
			done = true
		}
	}

	final := Message{Role: "assistant", Content: strings.Join(parts, "")}
	if len(parts) > 1 {
		if err := forward(final.Content); err != nil {
			return err
		}
	}
	return a.appendToConversation(ctx, final)
}
