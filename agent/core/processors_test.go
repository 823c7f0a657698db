package core

import (
	"context"
	"testing"
)

func TestTokenLimiter_KeepsRecentTail(t *testing.T) {
	p := TokenLimiter{MaxChars: 3}
	in := []Message{
		{Role: "user", Content: "12"},
		{Role: "assistant", Content: "34"},
		{Role: "user", Content: "5"},
	}

	out := p.Process(context.Background(), in)

	if len(out) != 2 {
		t.Fatalf("expected 2 messages kept, got %d: %#v", len(out), out)
	}
	if out[0].Content != "34" || out[1].Content != "5" {
		t.Fatalf("expected the most recent tail, got %#v", out)
	}
}

func TestTokenLimiter_ZeroIsUnlimited(t *testing.T) {
	p := TokenLimiter{}
	in := []Message{{Role: "user", Content: "a very long message indeed"}}
	out := p.Process(context.Background(), in)
	if len(out) != 1 {
		t.Fatalf("zero limit should pass everything through, got %#v", out)
	}
}

func TestTokenLimiter_DropsAllWhenNothingFits(t *testing.T) {
	p := TokenLimiter{MaxChars: 1}
	in := []Message{{Role: "user", Content: "too big"}}
	out := p.Process(context.Background(), in)
	if len(out) != 0 {
		t.Fatalf("expected empty history, got %#v", out)
	}
}

func TestToolCallFilter_DropsToolResults(t *testing.T) {
	f := ToolCallFilter{}
	in := []Message{
		{Role: "user", Content: "去捡球"},
		{Role: "tool", Content: "叼回了网球"},
		{Role: "assistant", Content: "捡回来啦！"},
	}

	out := f.Process(context.Background(), in)

	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d: %#v", len(out), out)
	}
	for _, m := range out {
		if m.Role == "tool" {
			t.Fatalf("tool message survived the filter: %#v", m)
		}
	}
	if out[0].Content != "去捡球" || out[1].Content != "捡回来啦！" {
		t.Fatalf("user/assistant order disturbed: %#v", out)
	}
}
