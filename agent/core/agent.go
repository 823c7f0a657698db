// Package core holds the Agent interface and its default implementation, a
// chat agent that loops over LLM calls, tool executions, and handoffs.
package core

import (
	"context"
)

// Message is one turn exchanged with an agent.
type Message struct {
	Role    string            `json:"role"`
	Content string            `json:"content"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Agent runs a reasoning-action loop.
type Agent interface {
	// Run executes one loop for the input and returns the final message.
	Run(ctx context.Context, input Message) (Message, error)

	// RunStream executes the loop, delivering responses over output.
	RunStream(ctx context.Context, input Message, output chan<- Message) error
}

// AgentConfig is the behavior-independent agent configuration.
type AgentConfig struct {
	MaxIterations int
	Timeout       string
	SystemPrompt  string
}
