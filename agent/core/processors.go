package core

import "context"

// MessageProcessor rewrites conversation history before it is sent to the
// model. Processors run in order against the stored history, not against the
// system prompt.
type MessageProcessor interface {
	Process(ctx context.Context, msgs []Message) []Message
}

// TokenLimiter keeps the most recent messages whose combined content stays
// within MaxChars. Character count is a cheap stand-in for token count.
type TokenLimiter struct {
	MaxChars int
}

func (p TokenLimiter) Process(ctx context.Context, msgs []Message) []Message {
	if p.MaxChars <= 0 {
		return msgs
	}
	total := 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		if total+len(msgs[i].Content) > p.MaxChars {
			break
		}
		total += len(msgs[i].Content)
		start = i
	}
	return msgs[start:]
}

// ToolCallFilter drops tool-result messages from the history, keeping the
// prompt focused on the user/assistant exchange.
type ToolCallFilter struct{}

func (f ToolCallFilter) Process(ctx context.Context, msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == "tool" {
			continue
		}
		out = append(out, m)
	}
	return out
}
