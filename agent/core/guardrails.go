package core

import (
	"context"
	"errors"
	"strings"

	"github.com/kennelworks/kennel/llm"
)

// ErrInputBlocked is returned when a deny rule matches the user input.
var ErrInputBlocked = errors.New("request blocked by guardrails")

// ErrInputNotAllowed is returned when an allowlist is configured and nothing
// on it matches.
var ErrInputNotAllowed = errors.New("request not permitted by guardrails")

// SimpleGuardrails is a Middleware that filters the latest user input by
// substring rules before it reaches the model. Matching is case-insensitive.
type SimpleGuardrails struct {
	DenySubstrings  []string
	AllowSubstrings []string // when non-empty, at least one must match
	MaxInputChars   int      // 0 means unlimited; counted in runes
}

func (g *SimpleGuardrails) BeforeLLMCall(ctx context.Context, req *llm.ChatRequest) error {
	if req == nil || len(req.Messages) == 0 {
		return nil
	}
	last := &req.Messages[len(req.Messages)-1]
	if last.Role != "user" {
		return nil
	}

	// Truncate by runes so multibyte input is never cut mid-character.
	if g.MaxInputChars > 0 {
		if runes := []rune(last.Content); len(runes) > g.MaxInputChars {
			last.Content = string(runes[:g.MaxInputChars])
		}
	}

	lower := strings.ToLower(last.Content)
	for _, s := range g.DenySubstrings {
		if s != "" && strings.Contains(lower, strings.ToLower(s)) {
			return ErrInputBlocked
		}
	}

	if len(g.AllowSubstrings) == 0 {
		return nil
	}
	for _, s := range g.AllowSubstrings {
		if s != "" && strings.Contains(lower, strings.ToLower(s)) {
			return nil
		}
	}
	return ErrInputNotAllowed
}

func (g *SimpleGuardrails) AfterLLMResponse(ctx context.Context, resp *llm.Response) error {
	return nil
}

func (g *SimpleGuardrails) BeforeToolExecute(ctx context.Context, toolName string, input string) error {
	return nil
}

func (g *SimpleGuardrails) AfterToolExecute(ctx context.Context, toolName string, result string, execErr error) error {
	return nil
}

func (g *SimpleGuardrails) AfterRun(ctx context.Context, final Message) error { return nil }
