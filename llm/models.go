package llm

import (
	"fmt"
)

// Provider names a model vendor.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderDeepSeek  Provider = "deepseek"
)

// ModelFamily groups model generations within a provider.
type ModelFamily string

const (
	FamilyGPT4o    ModelFamily = "gpt-4o"
	FamilyGPT4     ModelFamily = "gpt-4"
	FamilyO1       ModelFamily = "o1"
	FamilyClaude35 ModelFamily = "claude-3.5"
	FamilyClaude4  ModelFamily = "claude-4"
	FamilyDeepSeek ModelFamily = "deepseek"
)

// Model is one catalog entry: identity, pricing, and what the model can do.
type Model struct {
	Provider     Provider     `json:"provider"`
	Name         string       `json:"name"`
	DisplayName  string       `json:"display_name"`
	Family       ModelFamily  `json:"family"`
	ContextSize  int          `json:"context_size"`
	InputCost    float64      `json:"input_cost"`  // USD per 1M input tokens
	OutputCost   float64      `json:"output_cost"` // USD per 1M output tokens
	Capabilities Capabilities `json:"capabilities"`
}

// Capabilities flags the features a model supports.
type Capabilities struct {
	Chat            bool `json:"chat"`
	FunctionCalling bool `json:"function_calling"`
	Vision          bool `json:"vision"`
	Reasoning       bool `json:"reasoning"`
	ToolUse         bool `json:"tool_use"`
	JSON            bool `json:"json"`
	Streaming       bool `json:"streaming"`
}

// Model name constants for the providers the module ships adapters for.
// DeepSeek speaks the OpenAI wire protocol on its own endpoint.
const (
	ModelDeepSeekChat     = "deepseek-chat"
	ModelDeepSeekReasoner = "deepseek-reasoner"

	ModelGPT4o     = "gpt-4o"
	ModelGPT4oMini = "gpt-4o-mini"
	ModelGPT4Turbo = "gpt-4-turbo"
	ModelO1        = "o1"
	ModelO1Mini    = "o1-mini"

	ModelClaudeOpus4    = "claude-4-opus"
	ModelClaudeSonnet4  = "claude-4-sonnet"
	ModelClaude35Sonnet = "claude-3-5-sonnet-20241022"
	ModelClaude35Haiku  = "claude-3-5-haiku-20241022"
)

// AvailableModels is the catalog the clients consult for defaults, pricing,
// and capability checks.
var AvailableModels = map[string]Model{
	ModelDeepSeekChat: {
		Provider:    ProviderDeepSeek,
		Name:        ModelDeepSeekChat,
		DisplayName: "DeepSeek Chat",
		Family:      FamilyDeepSeek,
		ContextSize: 64000,
		InputCost:   0.27,
		OutputCost:  1.10,
		Capabilities: Capabilities{
			Chat: true, FunctionCalling: true, JSON: true, Streaming: true,
		},
	},
	ModelDeepSeekReasoner: {
		Provider:    ProviderDeepSeek,
		Name:        ModelDeepSeekReasoner,
		DisplayName: "DeepSeek Reasoner",
		Family:      FamilyDeepSeek,
		ContextSize: 64000,
		InputCost:   0.55,
		OutputCost:  2.19,
		Capabilities: Capabilities{
			Chat: true, Reasoning: true, JSON: true, Streaming: true,
		},
	},

	ModelGPT4o: {
		Provider:    ProviderOpenAI,
		Name:        ModelGPT4o,
		DisplayName: "GPT-4o",
		Family:      FamilyGPT4o,
		ContextSize: 128000,
		InputCost:   5.0,
		OutputCost:  15.0,
		Capabilities: Capabilities{
			Chat: true, FunctionCalling: true, Vision: true, JSON: true, Streaming: true,
		},
	},
	ModelGPT4oMini: {
		Provider:    ProviderOpenAI,
		Name:        ModelGPT4oMini,
		DisplayName: "GPT-4o Mini",
		Family:      FamilyGPT4o,
		ContextSize: 128000,
		InputCost:   0.15,
		OutputCost:  0.60,
		Capabilities: Capabilities{
			Chat: true, FunctionCalling: true, Vision: true, JSON: true, Streaming: true,
		},
	},
	ModelGPT4Turbo: {
		Provider:    ProviderOpenAI,
		Name:        ModelGPT4Turbo,
		DisplayName: "GPT-4 Turbo",
		Family:      FamilyGPT4,
		ContextSize: 128000,
		InputCost:   10.0,
		OutputCost:  30.0,
		Capabilities: Capabilities{
			Chat: true, FunctionCalling: true, Vision: true, JSON: true, Streaming: true,
		},
	},
	ModelO1: {
		Provider:    ProviderOpenAI,
		Name:        ModelO1,
		DisplayName: "O1",
		Family:      FamilyO1,
		ContextSize: 200000,
		InputCost:   15.0,
		OutputCost:  60.0,
		Capabilities: Capabilities{
			Chat: true, Reasoning: true, JSON: true,
		},
	},
	ModelO1Mini: {
		Provider:    ProviderOpenAI,
		Name:        ModelO1Mini,
		DisplayName: "O1 Mini",
		Family:      FamilyO1,
		ContextSize: 128000,
		InputCost:   3.0,
		OutputCost:  12.0,
		Capabilities: Capabilities{
			Chat: true, Reasoning: true, JSON: true,
		},
	},

	ModelClaudeOpus4: {
		Provider:    ProviderAnthropic,
		Name:        ModelClaudeOpus4,
		DisplayName: "Claude 4 Opus",
		Family:      FamilyClaude4,
		ContextSize: 200000,
		InputCost:   15.0,
		OutputCost:  75.0,
		Capabilities: Capabilities{
			Chat: true, Vision: true, ToolUse: true, JSON: true, Streaming: true,
		},
	},
	ModelClaudeSonnet4: {
		Provider:    ProviderAnthropic,
		Name:        ModelClaudeSonnet4,
		DisplayName: "Claude 4 Sonnet",
		Family:      FamilyClaude4,
		ContextSize: 200000,
		InputCost:   3.0,
		OutputCost:  15.0,
		Capabilities: Capabilities{
			Chat: true, Vision: true, ToolUse: true, JSON: true, Streaming: true,
		},
	},
	ModelClaude35Sonnet: {
		Provider:    ProviderAnthropic,
		Name:        ModelClaude35Sonnet,
		DisplayName: "Claude 3.5 Sonnet",
		Family:      FamilyClaude35,
		ContextSize: 200000,
		InputCost:   3.0,
		OutputCost:  15.0,
		Capabilities: Capabilities{
			Chat: true, Vision: true, ToolUse: true, JSON: true, Streaming: true,
		},
	},
	ModelClaude35Haiku: {
		Provider:    ProviderAnthropic,
		Name:        ModelClaude35Haiku,
		DisplayName: "Claude 3.5 Haiku",
		Family:      FamilyClaude35,
		ContextSize: 200000,
		InputCost:   0.25,
		OutputCost:  1.25,
		Capabilities: Capabilities{
			Chat: true, Vision: true, ToolUse: true, JSON: true, Streaming: true,
		},
	},
}

// GetModel looks a model up by name.
func GetModel(name string) (Model, error) {
	model, exists := AvailableModels[name]
	if !exists {
		return Model{}, fmt.Errorf("unknown model: %s", name)
	}
	return model, nil
}

// GetModelsByProvider returns every catalog entry for a provider.
func GetModelsByProvider(provider Provider) []Model {
	var models []Model
	for _, model := range AvailableModels {
		if model.Provider == provider {
			models = append(models, model)
		}
	}
	return models
}

// GetCheapestModel picks the provider's model with the lowest combined
// per-token price.
func GetCheapestModel(provider Provider) (Model, error) {
	models := GetModelsByProvider(provider)
	if len(models) == 0 {
		return Model{}, fmt.Errorf("no models found for provider: %s", provider)
	}

	cheapest := models[0]
	for _, model := range models[1:] {
		if model.InputCost+model.OutputCost < cheapest.InputCost+cheapest.OutputCost {
			cheapest = model
		}
	}
	return cheapest, nil
}

// ValidateModel reports whether a model name is in the catalog.
func ValidateModel(name string) error {
	_, err := GetModel(name)
	return err
}

func (m Model) String() string {
	return fmt.Sprintf("%s (%s) - %s", m.DisplayName, m.Name, m.Provider)
}

// EstimateCost converts token counts to USD using the catalog prices.
func (m Model) EstimateCost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)/1e6)*m.InputCost + (float64(outputTokens)/1e6)*m.OutputCost
}
