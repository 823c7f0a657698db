package core

import (
	"encoding/json"
	"strings"

	"github.com/kennelworks/kennel/llm"
)

// Handoffs expose other agents to the model as transfer tools. When the model
// calls one, the runner records the transfer as a tool message and continues
// the conversation with the target agent's instructions and tools.

const handoffToolPrefix = "transfer_to_"

// HandoffToolName returns the tool name under which an agent is offered as a
// handoff target. Spaces in agent names are not valid in tool names.
func HandoffToolName(agentName string) string {
	return handoffToolPrefix + strings.ReplaceAll(agentName, " ", "_")
}

func handoffToolDef(target *ChatAgent) llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        HandoffToolName(target.Name),
			Description: "Handoff the conversation to the " + target.Name + ".",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handoffTarget resolves a tool-call name against an agent's handoff list.
func (a *ChatAgent) handoffTarget(toolName string) *ChatAgent {
	if !strings.HasPrefix(toolName, handoffToolPrefix) {
		return nil
	}
	for _, h := range a.Handoffs {
		if HandoffToolName(h.Name) == toolName {
			return h
		}
	}
	return nil
}

// handoffResult is the tool-message payload acknowledging a transfer, e.g.
// {"assistant": "地理 agent"}.
func handoffResult(target *ChatAgent) string {
	b, err := json.Marshal(map[string]string{"assistant": target.Name})
	if err != nil {
		return `{"assistant": "` + target.Name + `"}`
	}
	return string(b)
}
