package promptdump

import (
	"context"

	"github.com/kennelworks/kennel/llm"
)

// WrapClient decorates an llm.Client so every completed chat call is recorded
// by the process-wide recorder. The wrapped client forwards requests and
// responses unchanged.
func WrapClient(inner llm.Client) llm.Client {
	return WrapClientWith(inner, Default)
}

// WrapClientWith decorates an llm.Client with an explicit recorder.
func WrapClientWith(inner llm.Client, rec *Recorder) llm.Client {
	return &loggedClient{inner: inner, rec: rec}
}

type loggedClient struct {
	inner llm.Client
	rec   *Recorder
}

func (c *loggedClient) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	resp, err := c.inner.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	c.record(req, resp)
	return resp, nil
}

func (c *loggedClient) Completion(ctx context.Context, prompt string) (*llm.Response, error) {
	resp, err := c.inner.Completion(ctx, prompt)
	if err != nil {
		return nil, err
	}
	c.record(&llm.ChatRequest{Messages: []llm.Message{{Role: "user", Content: prompt}}}, resp)
	return resp, nil
}

// Stream forwards without recording: deltas carry no usage accounting and
// recording partial chunks would produce one record per token.
func (c *loggedClient) Stream(ctx context.Context, req *llm.ChatRequest, output chan<- *llm.Response) error {
	return c.inner.Stream(ctx, req, output)
}

func (c *loggedClient) Model() string          { return c.inner.Model() }
func (c *loggedClient) Provider() llm.Provider { return c.inner.Provider() }
func (c *loggedClient) Validate() error        { return c.inner.Validate() }

func (c *loggedClient) record(req *llm.ChatRequest, resp *llm.Response) {
	messages := req.Messages
	if req.SystemPrompt != "" {
		messages = append([]llm.Message{{Role: "system", Content: req.SystemPrompt}}, messages...)
	}

	var usage Usage
	if resp.Usage != nil {
		usage = Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	model := resp.Model
	if model == "" {
		model = c.inner.Model()
	}

	c.rec.Record(model, FromLLMMessages(messages), req.Tools, resp.Content, resp.ToolCalls, usage)
}

var _ llm.Client = (*loggedClient)(nil)
