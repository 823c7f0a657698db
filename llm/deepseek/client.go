// Package deepseek configures an OpenAI-compatible client against the
// DeepSeek chat-completion endpoint. DeepSeek speaks the OpenAI wire format,
// so the client itself lives in llm/openai; this package only supplies the
// endpoint and credential conventions.
package deepseek

import (
	"fmt"
	"os"
	"time"

	"github.com/kennelworks/kennel/llm"
	"github.com/kennelworks/kennel/llm/openai"
)

// DefaultBaseURL is the DeepSeek OpenAI-compatible API endpoint.
const DefaultBaseURL = "https://api.deepseek.com"

// Config holds DeepSeek-specific configuration.
type Config struct {
	APIKey      string          `json:"api_key"`
	Model       string          `json:"model"` // e.g. "deepseek-chat", "deepseek-reasoner"
	BaseURL     string          `json:"base_url,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Timeout     time.Duration   `json:"timeout,omitempty"`
	RetryConfig llm.RetryConfig `json:"retry_config,omitempty"`
}

// NewClient creates a DeepSeek chat client.
func NewClient(config Config) (*openai.Client, error) {
	if config.Model == "" {
		config.Model = llm.ModelDeepSeekChat
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	return openai.NewClient(openai.Config{
		APIKey:      config.APIKey,
		Model:       config.Model,
		BaseURL:     config.BaseURL,
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
		Timeout:     config.Timeout,
		RetryConfig: config.RetryConfig,
	})
}

// NewClientFromEnv creates a client from DEEPSEEK_API_KEY and, when set,
// DEEPSEEK_BASE_URL.
func NewClientFromEnv(model string) (*openai.Client, error) {
	apiKey := os.Getenv("DEEPSEEK_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY environment variable is required")
	}
	return NewClient(Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: os.Getenv("DEEPSEEK_BASE_URL"),
	})
}
