// Package http provides a tool that lets an agent call external HTTP APIs.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kennelworks/kennel/tools"
)

// Tool output is fed back into the model's context, so response bodies are
// capped rather than forwarded whole.
const maxResponseBytes = 8 * 1024

// RequestTool performs one HTTP request per call. Input format is
// METHOD|URL|BODY, with BODY optional.
type RequestTool struct {
	client *http.Client
}

// NewRequestTool creates the tool; a zero timeout means 30 seconds.
func NewRequestTool(timeout time.Duration) *RequestTool {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &RequestTool{
		client: &http.Client{Timeout: timeout},
	}
}

func (t *RequestTool) Name() string {
	return "http_request"
}

func (t *RequestTool) Description() string {
	return "Makes HTTP requests to external APIs. Input should be in format: METHOD|URL|BODY (optional)"
}

func (t *RequestTool) Execute(ctx context.Context, input string) (string, error) {
	parts := strings.SplitN(input, "|", 3)
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid input format. Expected: METHOD|URL|BODY (optional)")
	}

	method := strings.ToUpper(strings.TrimSpace(parts[0]))
	url := strings.TrimSpace(parts[1])

	var reqBody io.Reader
	if len(parts) > 2 && parts[2] != "" {
		reqBody = strings.NewReader(parts[2])
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "kennel/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return fmt.Sprintf("Status: %d %s\nBody: %s", resp.StatusCode, resp.Status, respBody), nil
}

func (t *RequestTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"input": map[string]interface{}{
				"type":        "string",
				"description": "HTTP request in format: METHOD|URL|BODY (optional)",
				"example":     "GET|https://wttr.in/上海?format=3|",
			},
		},
		"required": []string{"input"},
	}
}

var _ tools.Tool = (*RequestTool)(nil)
