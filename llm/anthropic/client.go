// Package anthropic adapts the go-anthropic SDK to the llm.Client interface.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kennelworks/kennel/llm"
	"github.com/liushuangls/go-anthropic/v2"
)

// Client wraps the SDK client with retry and error normalization.
type Client struct {
	client  *anthropic.Client
	config  Config
	retrier *llm.Retrier
}

// Config holds the Anthropic-specific client configuration.
type Config struct {
	APIKey      string          `json:"api_key"`
	Model       string          `json:"model"` // e.g. "claude-3-5-haiku-20241022"
	BaseURL     string          `json:"base_url,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Timeout     time.Duration   `json:"timeout,omitempty"`
	RetryConfig llm.RetryConfig `json:"retry_config,omitempty"`
	Debug       bool            `json:"debug,omitempty"`
}

// NewClient builds a client, applying defaults for anything unset.
func NewClient(config Config) (*Client, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if config.Model == "" {
		config.Model = llm.ModelClaude35Haiku
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1000
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryConfig.MaxRetries == 0 {
		config.RetryConfig = llm.DefaultRetryConfig()
	}

	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	}
	if config.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(config.BaseURL))
	}

	return &Client{
		client:  anthropic.NewClient(config.APIKey, opts...),
		config:  config,
		retrier: llm.NewRetrier(config.RetryConfig),
	}, nil
}

func validateConfig(config Config) error {
	if config.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if config.Model != "" {
		if err := llm.ValidateModel(config.Model); err != nil {
			return fmt.Errorf("invalid model: %w", err)
		}
		model, _ := llm.GetModel(config.Model)
		if model.Provider != llm.ProviderAnthropic {
			return fmt.Errorf("model %s is not an Anthropic model", config.Model)
		}
	}
	// Anthropic temperature tops out at 1, unlike the OpenAI-style range.
	if config.Temperature < 0 || config.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	return nil
}

// textContent wraps a string in the single-block content form the SDK wants.
func textContent(s string) []anthropic.MessageContent {
	return []anthropic.MessageContent{{Type: "text", Text: &s}}
}

// splitMessages folds system-role messages into the system prompt, since the
// Anthropic API carries it outside the message list, and maps the rest to SDK
// messages. Tool results become user turns; the Messages API has no separate
// tool role.
func splitMessages(req *llm.ChatRequest) (string, []anthropic.Message) {
	system := req.SystemPrompt
	messages := make([]anthropic.Message, 0, len(req.Messages))

	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			if system != "" {
				system += "\n\n" + msg.Content
			} else {
				system = msg.Content
			}
		case "assistant":
			messages = append(messages, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: textContent(msg.Content),
			})
		default: // user, tool, anything else
			messages = append(messages, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: textContent(msg.Content),
			})
		}
	}
	return system, messages
}

// buildRequest assembles the SDK request from the neutral one, falling back
// to the client config for unset knobs.
func (c *Client) buildRequest(req *llm.ChatRequest) anthropic.MessagesRequest {
	model := c.config.Model
	if req.Model != "" {
		model = req.Model
	}
	system, messages := splitMessages(req)

	out := anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		Messages:  messages,
		MaxTokens: c.config.MaxTokens,
		System:    system,
	}

	temp := float32(c.config.Temperature)
	if req.Temperature != nil {
		temp = float32(*req.Temperature)
	}
	out.Temperature = &temp

	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		p := float32(*req.TopP)
		out.TopP = &p
	}
	if len(req.Stop) > 0 {
		out.StopSequences = req.Stop
	}
	return out
}

// Chat implements llm.Client.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	start := time.Now()

	result, err := llm.Execute(c.retrier, ctx, func(ctx context.Context, attempt int) (*llm.Response, error) {
		return c.chat(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	result.Latency = time.Since(start)
	result.Timestamp = start
	return result, nil
}

func (c *Client) chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	if len(req.Tools) > 0 {
		return nil, llm.NewLLMError(llm.ProviderAnthropic, llm.ErrorTypeInvalidRequest,
			"tool calling is not wired for this transport")
	}

	anthReq := c.buildRequest(req)

	resp, err := c.client.CreateMessages(ctx, anthReq)
	if err != nil {
		return nil, c.convertError(err)
	}
	if len(resp.Content) == 0 {
		return nil, llm.NewLLMError(llm.ProviderAnthropic, llm.ErrorTypeUnknown, "no content returned")
	}

	// Content arrives as a list of blocks; join the text ones.
	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			content.WriteString(*block.Text)
		}
	}

	var usage *llm.Usage
	if resp.Usage.OutputTokens > 0 {
		modelInfo, _ := llm.GetModel(string(anthReq.Model))
		usage = &llm.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
			Cost:         modelInfo.EstimateCost(resp.Usage.InputTokens, resp.Usage.OutputTokens),
		}
	}

	return &llm.Response{
		Content:      content.String(),
		Role:         "assistant",
		Model:        string(anthReq.Model),
		Provider:     llm.ProviderAnthropic,
		Usage:        usage,
		FinishReason: string(resp.StopReason),
		Meta: map[string]string{
			"id":   resp.ID,
			"type": string(resp.Type),
			"role": string(resp.Role),
		},
	}, nil
}

// Completion implements llm.Client.
func (c *Client) Completion(ctx context.Context, prompt string) (*llm.Response, error) {
	return c.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	})
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, req *llm.ChatRequest, output chan<- *llm.Response) error {
	defer close(output)

	_, err := llm.Execute(c.retrier, ctx, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, c.stream(ctx, req, output)
	})
	return err
}

func (c *Client) stream(ctx context.Context, req *llm.ChatRequest, output chan<- *llm.Response) error {
	anthReq := c.buildRequest(req)
	start := time.Now()

	streamReq := anthropic.MessagesStreamRequest{
		MessagesRequest: anthReq,
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if data.Delta.Text == nil || *data.Delta.Text == "" {
				return
			}
			chunk := &llm.Response{
				Content:   *data.Delta.Text,
				Role:      "assistant",
				Model:     string(anthReq.Model),
				Provider:  llm.ProviderAnthropic,
				Latency:   time.Since(start),
				Timestamp: start,
				Meta: map[string]string{
					"streaming": "true",
					"event":     "content_block_delta",
				},
			}
			select {
			case output <- chunk:
			case <-ctx.Done():
			}
		},
	}

	if _, err := c.client.CreateMessagesStream(ctx, streamReq); err != nil {
		return c.convertError(err)
	}
	return nil
}

// errorTypeFromAPIError maps the API's error type strings onto our taxonomy.
func errorTypeFromAPIError(code string) llm.ErrorType {
	switch code {
	case "rate_limit_error":
		return llm.ErrorTypeRateLimit
	case "overloaded_error":
		return llm.ErrorTypeOverloaded
	case "authentication_error":
		return llm.ErrorTypeAuthentication
	case "permission_error":
		return llm.ErrorTypePermission
	case "not_found_error":
		return llm.ErrorTypeNotFound
	case "invalid_request_error":
		return llm.ErrorTypeInvalidRequest
	case "api_error":
		return llm.ErrorTypeServerError
	default:
		return llm.ErrorTypeUnknown
	}
}

// convertError normalizes SDK errors into llm.LLMError values so the retrier
// can classify them.
func (c *Client) convertError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		code := string(apiErr.Type)
		llmErr := llm.NewLLMErrorWithCause(llm.ProviderAnthropic, errorTypeFromAPIError(code), apiErr.Message, err)
		llmErr.Code = code
		return llmErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeTimeout, "request timeout", err)
	}
	if errors.Is(err, context.Canceled) {
		return llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeUnknown, "context error", err)
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection") || strings.Contains(lower, "network") {
		return llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeConnectionError, "connection error", err)
	}
	return llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeUnknown, err.Error(), err)
}

// Model implements llm.Client.
func (c *Client) Model() string {
	return c.config.Model
}

// Provider implements llm.Client.
func (c *Client) Provider() llm.Provider {
	return llm.ProviderAnthropic
}

// Validate implements llm.Client.
func (c *Client) Validate() error {
	return validateConfig(c.config)
}

// StructuredChat runs a chat completion constrained to JSON and parses the
// result into T. Generic methods are not allowed on types, hence the package
// function.
func StructuredChat[T llm.Structured](c *Client, ctx context.Context, req llm.StructuredRequest[T]) (*llm.StructuredResponse[T], error) {
	systemPrompt := req.SystemPrompt
	if systemPrompt != "" {
		systemPrompt += "\n\n"
	}
	systemPrompt += "You must respond ONLY with a JSON object matching the specified schema. Do not include any other text outside the JSON."

	chatReq := &llm.ChatRequest{
		Messages:     req.Messages,
		SystemPrompt: systemPrompt,
		Model:        req.Model,
		Temperature:  &req.Temperature,
		MaxTokens:    &req.MaxTokens,
	}

	// The Messages API has no JSON mode; the schema in the prompt is all the
	// steering there is.
	if len(chatReq.Messages) > 0 {
		lastMsg := &chatReq.Messages[len(chatReq.Messages)-1]
		if lastMsg.Role == "user" {
			if schemaBytes, err := json.MarshalIndent(req.Schema, "", "  "); err == nil {
				lastMsg.Content += fmt.Sprintf("\n\nRespond with valid JSON matching this schema:\n```json\n%s\n```", schemaBytes)
			} else {
				lastMsg.Content += "\n\nRespond with a valid JSON object that includes all required fields."
			}
		}
	}

	resp, err := c.Chat(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	structuredResp, err := llm.ParseStructured(resp.Content, req.OutputType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse structured output: %w", err)
	}
	structuredResp.RawResponse = resp
	structuredResp.Usage = resp.Usage
	return structuredResp, nil
}

// StructuredCompletion is StructuredChat for a single prompt.
func StructuredCompletion[T llm.Structured](c *Client, ctx context.Context, prompt string, outputType T) (*llm.StructuredResponse[T], error) {
	return StructuredChat(c, ctx, llm.StructuredRequest[T]{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		OutputType:  outputType,
		Schema:      outputType.JSONSchema(),
	})
}
