package core

import (
	"context"

	"github.com/kennelworks/kennel/llm"
)

// Middleware observes and optionally vetoes steps of an agent run. An error
// from a Before hook aborts the run; errors from After hooks are ignored so
// observers cannot break a completed step.
type Middleware interface {
	BeforeLLMCall(ctx context.Context, req *llm.ChatRequest) error
	AfterLLMResponse(ctx context.Context, resp *llm.Response) error
	BeforeToolExecute(ctx context.Context, toolName string, input string) error
	AfterToolExecute(ctx context.Context, toolName string, result string, execErr error) error
	AfterRun(ctx context.Context, final Message) error
}

func (a *ChatAgent) beforeLLMCall(ctx context.Context, req *llm.ChatRequest) error {
	for _, mw := range a.Middleware {
		if err := mw.BeforeLLMCall(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (a *ChatAgent) afterLLMResponse(ctx context.Context, resp *llm.Response) {
	for _, mw := range a.Middleware {
		_ = mw.AfterLLMResponse(ctx, resp)
	}
}

func (a *ChatAgent) beforeToolExecute(ctx context.Context, name, input string) error {
	for _, mw := range a.Middleware {
		if err := mw.BeforeToolExecute(ctx, name, input); err != nil {
			return err
		}
	}
	return nil
}

func (a *ChatAgent) afterToolExecute(ctx context.Context, name, result string, execErr error) {
	for _, mw := range a.Middleware {
		_ = mw.AfterToolExecute(ctx, name, result, execErr)
	}
}

func (a *ChatAgent) afterRun(ctx context.Context, final Message) {
	for _, mw := range a.Middleware {
		_ = mw.AfterRun(ctx, final)
	}
}
