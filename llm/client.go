// Package llm defines the provider-neutral chat types and the Client
// interface every provider adapter implements, plus the shared retry and
// error machinery around them.
package llm

import (
	"context"
	"time"
)

// Message is one turn in a conversation.
type Message struct {
	Role       string `json:"role"`    // "system", "user", "assistant", "tool"
	Content    string `json:"content"` // message content
	Name       string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"` // set on tool result messages
}

// Response is a completed model turn.
type Response struct {
	Content      string            `json:"content"`
	Role         string            `json:"role,omitempty"`
	Model        string            `json:"model"`
	Provider     Provider          `json:"provider"`
	Usage        *Usage            `json:"usage,omitempty"`
	FinishReason string            `json:"finish_reason,omitempty"` // "stop", "length", "tool_calls"
	ToolCalls    []ToolCall        `json:"tool_calls,omitempty"`
	Meta         map[string]string `json:"meta,omitempty"`
	Latency      time.Duration     `json:"latency,omitempty"`
	Timestamp    time.Time         `json:"timestamp,omitempty"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"` // "function"
	Function Function `json:"function"`
}

// Function names the tool and carries its arguments as raw JSON.
type Function struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Client is the provider adapter interface. Implementations live in the
// provider subpackages (openai, anthropic, deepseek).
type Client interface {
	// Chat sends a conversation and returns the model's turn.
	Chat(ctx context.Context, req *ChatRequest) (*Response, error)

	// Completion wraps a single prompt as a one-message chat.
	Completion(ctx context.Context, prompt string) (*Response, error)

	// Stream delivers partial responses over output until the turn ends.
	Stream(ctx context.Context, req *ChatRequest, output chan<- *Response) error

	// Model returns the configured model identifier.
	Model() string

	// Provider returns the provider name.
	Provider() Provider

	// Validate checks the client configuration.
	Validate() error
}

// ChatRequest is a provider-neutral chat completion request. Nil pointer
// fields mean "use the provider default".
type ChatRequest struct {
	Messages         []Message              `json:"messages"`
	Model            string                 `json:"model,omitempty"`
	SystemPrompt     string                 `json:"system_prompt,omitempty"`
	Temperature      *float64               `json:"temperature,omitempty"`
	MaxTokens        *int                   `json:"max_tokens,omitempty"`
	TopP             *float64               `json:"top_p,omitempty"`
	FrequencyPenalty *float64               `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64               `json:"presence_penalty,omitempty"`
	Stop             []string               `json:"stop,omitempty"`
	Tools            []Tool                 `json:"tools,omitempty"`
	ToolChoice       interface{}            `json:"tool_choice,omitempty"` // "auto", "none", or a specific tool
	ResponseFormat   *ResponseFormat        `json:"response_format,omitempty"`
	Seed             *int                   `json:"seed,omitempty"`
	User             string                 `json:"user,omitempty"`
	Meta             map[string]interface{} `json:"meta,omitempty"` // provider-specific options
}

// Tool declares a callable function to the model.
type Tool struct {
	Type     string       `json:"type"` // "function"
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function half of a Tool declaration.
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// ResponseFormat constrains the output format.
type ResponseFormat struct {
	Type       string                 `json:"type"` // "text" or "json_object"
	JSONSchema map[string]interface{} `json:"json_schema,omitempty"`
}

// RetryConfig controls the Retrier. RetryableErrors matches plain error
// strings; LLMError values are classified by type instead.
type RetryConfig struct {
	MaxRetries      int           `json:"max_retries"`
	InitialDelay    time.Duration `json:"initial_delay"`
	MaxDelay        time.Duration `json:"max_delay"`
	BackoffFactor   float64       `json:"backoff_factor"`
	RetryableErrors []string      `json:"retryable_errors"`
}

// DefaultRetryConfig returns the defaults the provider clients start from.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: []string{
			"rate_limit_exceeded",
			"server_error",
			"overloaded",
			"timeout",
			"connection_error",
		},
	}
}

// Config is the common provider client configuration.
type Config struct {
	APIKey       string            `json:"api_key"`
	Model        string            `json:"model"`
	BaseURL      string            `json:"base_url,omitempty"`
	Temperature  float64           `json:"temperature,omitempty"`
	MaxTokens    int               `json:"max_tokens,omitempty"`
	Timeout      time.Duration     `json:"timeout,omitempty"`
	RetryConfig  RetryConfig       `json:"retry_config,omitempty"`
	Debug        bool              `json:"debug,omitempty"`
	UserAgent    string            `json:"user_agent,omitempty"`
	ExtraHeaders map[string]string `json:"extra_headers,omitempty"`
}
