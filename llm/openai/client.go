// Package openai adapts the go-openai SDK to the llm.Client interface. With
// a custom BaseURL it also serves OpenAI-compatible providers; the deepseek
// package builds on that.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kennelworks/kennel/llm"
	"github.com/sashabaranov/go-openai"
)

// Client wraps the SDK client with retry and error normalization.
type Client struct {
	client  *openai.Client
	config  Config
	retrier *llm.Retrier
}

// Config holds the OpenAI-specific client configuration.
type Config struct {
	APIKey       string          `json:"api_key"`
	Model        string          `json:"model"`
	BaseURL      string          `json:"base_url,omitempty"` // set for OpenAI-compatible endpoints
	Temperature  float64         `json:"temperature,omitempty"`
	MaxTokens    int             `json:"max_tokens,omitempty"`
	Timeout      time.Duration   `json:"timeout,omitempty"`
	RetryConfig  llm.RetryConfig `json:"retry_config,omitempty"`
	Debug        bool            `json:"debug,omitempty"`
	Organization string          `json:"organization,omitempty"`
}

// NewClient builds a client, applying defaults for anything unset.
func NewClient(config Config) (*Client, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if config.Model == "" {
		config.Model = llm.ModelGPT4oMini
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

	sdkConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		sdkConfig.BaseURL = config.BaseURL
	}
	if config.Organization != "" {
		sdkConfig.OrgID = config.Organization
	}
	sdkConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &Client{
		client:  openai.NewClientWithConfig(sdkConfig),
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
		// A custom BaseURL means an OpenAI-compatible provider, so the
		// catalog provider need not be OpenAI in that case.
		model, _ := llm.GetModel(config.Model)
		if model.Provider != llm.ProviderOpenAI && config.BaseURL == "" {
			return fmt.Errorf("model %s is not an OpenAI model", config.Model)
		}
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	return nil
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

// convertMessages maps the neutral message list to SDK messages, prepending
// the request-level system prompt when set.
func convertMessages(req *llm.ChatRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	for _, msg := range req.Messages {
		m := openai.ChatCompletionMessage{Content: msg.Content}
		switch msg.Role {
		case "system":
			m.Role = openai.ChatMessageRoleSystem
		case "assistant":
			m.Role = openai.ChatMessageRoleAssistant
		case "tool":
			m.Role = openai.ChatMessageRoleTool
			m.ToolCallID = msg.ToolCallID
		default:
			m.Role = openai.ChatMessageRoleUser
		}
		if msg.Name != "" {
			m.Name = msg.Name
		}
		messages = append(messages, m)
	}
	return messages
}

// buildRequest assembles the SDK request from the neutral one, falling back
// to the client config for unset knobs.
func (c *Client) buildRequest(req *llm.ChatRequest) openai.ChatCompletionRequest {
	model := c.config.Model
	if req.Model != "" {
		model = req.Model
	}

	out := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(req),
	}

	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	} else {
		out.Temperature = float32(c.config.Temperature)
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	} else if c.config.MaxTokens > 0 {
		out.MaxTokens = c.config.MaxTokens
	}
	if req.TopP != nil {
		out.TopP = float32(*req.TopP)
	}
	if req.FrequencyPenalty != nil {
		out.FrequencyPenalty = float32(*req.FrequencyPenalty)
	}
	if req.PresencePenalty != nil {
		out.PresencePenalty = float32(*req.PresencePenalty)
	}
	if len(req.Stop) > 0 {
		out.Stop = req.Stop
	}
	out.Seed = req.Seed
	out.User = req.User

	if len(req.Tools) > 0 {
		tools := make([]openai.Tool, len(req.Tools))
		for i, tool := range req.Tools {
			tools[i] = openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        tool.Function.Name,
					Description: tool.Function.Description,
					Parameters:  tool.Function.Parameters,
				},
			}
		}
		out.Tools = tools
		if req.ToolChoice != nil {
			out.ToolChoice = req.ToolChoice
		}
	}

	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return out
}

func (c *Client) chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	sdkReq := c.buildRequest(req)

	resp, err := c.client.CreateChatCompletion(ctx, sdkReq)
	if err != nil {
		return nil, c.convertError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewLLMError(c.Provider(), llm.ErrorTypeUnknown, "no choices returned")
	}
	choice := resp.Choices[0]

	var toolCalls []llm.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		toolCalls = append(toolCalls, llm.ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: llm.Function{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	var usage *llm.Usage
	if resp.Usage.TotalTokens > 0 {
		modelInfo, _ := llm.GetModel(sdkReq.Model)
		usage = &llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
			Cost:         modelInfo.EstimateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		}
	}

	return &llm.Response{
		Content:      choice.Message.Content,
		Role:         "assistant",
		Model:        sdkReq.Model,
		Provider:     c.Provider(),
		Usage:        usage,
		FinishReason: string(choice.FinishReason),
		ToolCalls:    toolCalls,
		Meta: map[string]string{
			"id":      resp.ID,
			"object":  resp.Object,
			"created": fmt.Sprintf("%d", resp.Created),
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
	sdkReq := c.buildRequest(req)
	sdkReq.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, sdkReq)
	if err != nil {
		return c.convertError(err)
	}
	defer stream.Close()

	start := time.Now()
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return c.convertError(err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		choice := response.Choices[0]

		chunk := &llm.Response{
			Content:      choice.Delta.Content,
			Role:         "assistant",
			Model:        sdkReq.Model,
			Provider:     c.Provider(),
			FinishReason: string(choice.FinishReason),
			Latency:      time.Since(start),
			Timestamp:    start,
			Meta: map[string]string{
				"id":        response.ID,
				"created":   fmt.Sprintf("%d", response.Created),
				"streaming": "true",
			},
		}

		select {
		case output <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// convertError normalizes SDK errors into llm.LLMError values so the retrier
// can classify them.
func (c *Client) convertError(err error) error {
	if err == nil {
		return nil
	}
	provider := c.Provider()

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		llmErr := llm.ParseHTTPError(provider, apiErr.HTTPStatusCode, apiErr.Message)
		if code, ok := apiErr.Code.(string); ok {
			llmErr.Code = code
		}
		// 429 messages sometimes carry "try again in Xs"; without parsing
		// the exact value, back off a full minute.
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests &&
			strings.Contains(strings.ToLower(apiErr.Message), "try again in") {
			llmErr.RetryAfter = 60
		}
		return llmErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewLLMErrorWithCause(provider, llm.ErrorTypeTimeout, "request timeout", err)
	}
	if errors.Is(err, context.Canceled) {
		return llm.NewLLMErrorWithCause(provider, llm.ErrorTypeUnknown, "context error", err)
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection") || strings.Contains(lower, "network") {
		return llm.NewLLMErrorWithCause(provider, llm.ErrorTypeConnectionError, "connection error", err)
	}
	return llm.NewLLMErrorWithCause(provider, llm.ErrorTypeUnknown, err.Error(), err)
}

// Model implements llm.Client.
func (c *Client) Model() string {
	return c.config.Model
}

// Provider implements llm.Client. Models served through an OpenAI-compatible
// endpoint report their catalog provider, so a DeepSeek model answers
// "deepseek" even though the wire protocol is OpenAI's.
func (c *Client) Provider() llm.Provider {
	if model, err := llm.GetModel(c.config.Model); err == nil {
		return model.Provider
	}
	return llm.ProviderOpenAI
}

// Validate implements llm.Client.
func (c *Client) Validate() error {
	return validateConfig(c.config)
}

// StructuredChat runs a chat completion constrained to JSON and parses the
// result into T. Generic methods are not allowed on types, hence the package
// function.
func StructuredChat[T llm.Structured](c *Client, ctx context.Context, req llm.StructuredRequest[T]) (*llm.StructuredResponse[T], error) {
	chatReq := &llm.ChatRequest{
		Messages:     req.Messages,
		SystemPrompt: req.SystemPrompt + "\n\nYou must respond ONLY with a JSON object matching the provided schema. Do not add explanations.",
		Model:        req.Model,
		Temperature:  &req.Temperature,
		MaxTokens:    &req.MaxTokens,
		ResponseFormat: &llm.ResponseFormat{
			Type:       "json_object",
			JSONSchema: req.Schema,
		},
	}

	// Repeat the schema in the last user message; json_object mode alone
	// does not communicate the expected shape.
	if len(chatReq.Messages) > 0 {
		lastMsg := &chatReq.Messages[len(chatReq.Messages)-1]
		if lastMsg.Role == "user" {
			if schemaBytes, err := json.MarshalIndent(req.Schema, "", "  "); err == nil {
				lastMsg.Content += fmt.Sprintf("\n\nPlease respond with a valid JSON object matching this schema:\n```json\n%s\n```", schemaBytes)
			} else {
				lastMsg.Content += "\n\nPlease respond with a valid JSON object that includes all required fields."
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
