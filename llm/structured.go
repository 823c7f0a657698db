package llm

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Structured is implemented by output types the model is asked to fill in.
// The schema constrains generation; Validate catches what the schema cannot.
type Structured interface {
	Validate() error
	JSONSchema() map[string]interface{}
}

// StructuredRequest asks for a completion that parses into T.
type StructuredRequest[T Structured] struct {
	Messages     []Message              `json:"messages"`
	SystemPrompt string                 `json:"system_prompt,omitempty"`
	Model        string                 `json:"model"`
	Temperature  float64                `json:"temperature,omitempty"`
	MaxTokens    int                    `json:"max_tokens,omitempty"`
	Schema       map[string]interface{} `json:"schema,omitempty"`
	OutputType   T                      `json:"-"` // template for the output type
}

// StructuredResponse carries the parsed output next to the raw completion.
type StructuredResponse[T Structured] struct {
	Data        T                 `json:"data"`
	RawResponse *Response         `json:"raw_response"`
	Usage       *Usage            `json:"usage,omitempty"`
	Validation  *ValidationResult `json:"validation,omitempty"`
}

// ValidationResult records how parsing and validation went.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors,omitempty"`
	Retries int      `json:"retries"`
	RawJSON string   `json:"raw_json,omitempty"`
}

// Usage is the token accounting a provider reports for one call.
type Usage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost,omitempty"`
}

// BaseStructured gives embedders a reflection-derived schema and a
// pass-through Validate. Override either as needed.
type BaseStructured struct{}

func (b BaseStructured) Validate() error { return nil }

func (b BaseStructured) JSONSchema() map[string]interface{} {
	return generateJSONSchema(b)
}

// MoodReport is the dog's self-assessment, produced as structured output so
// callers can branch on it without parsing prose.
type MoodReport struct {
	BaseStructured
	Mood    string   `json:"mood" description:"happy, neutral, or unhappy"`
	Needs   []string `json:"needs,omitempty" description:"Unmet needs, in Chinese, e.g. 有点饿"`
	Comment string   `json:"comment,omitempty" description:"One sentence in the dog's voice"`
}

func (m MoodReport) Validate() error {
	switch m.Mood {
	case "happy", "neutral", "unhappy":
		return nil
	}
	return fmt.Errorf("mood must be happy, neutral, or unhappy, got %s", m.Mood)
}

// JSONSchema overrides the reflected schema to pin the mood enum.
func (m MoodReport) JSONSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"mood": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"happy", "neutral", "unhappy"},
				"description": "happy, neutral, or unhappy",
			},
			"needs": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Unmet needs, in Chinese",
			},
			"comment": map[string]interface{}{
				"type":        "string",
				"description": "One sentence in the dog's voice",
			},
		},
		"required": []string{"mood"},
	}
}

// BehaviorPlan is a model-chosen next action for the dog.
type BehaviorPlan struct {
	BaseStructured
	Behavior string  `json:"behavior" description:"Name of the behavior tool to run"`
	Reason   string  `json:"reason" description:"Why this behavior fits the current state"`
	Urgency  float64 `json:"urgency,omitempty" description:"0 to 1, how pressing the need is"`
}

func (p BehaviorPlan) Validate() error {
	if p.Behavior == "" {
		return fmt.Errorf("behavior cannot be empty")
	}
	if p.Urgency < 0 || p.Urgency > 1 {
		return fmt.Errorf("urgency must be between 0 and 1, got %f", p.Urgency)
	}
	return nil
}

// CityFact is the geo specialist's structured answer about a city.
type CityFact struct {
	BaseStructured
	City    string `json:"city" description:"City name as asked"`
	Country string `json:"country" description:"Country the city belongs to"`
	Fact    string `json:"fact,omitempty" description:"One notable fact"`
}

func (c CityFact) Validate() error {
	if c.City == "" {
		return fmt.Errorf("city cannot be empty")
	}
	if c.Country == "" {
		return fmt.Errorf("country cannot be empty")
	}
	return nil
}

// generateJSONSchema reflects over a struct and emits a JSON schema object.
// Fields without omitempty become required; the description tag is carried
// through.
func generateJSONSchema(v interface{}) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": make(map[string]interface{}),
		"required":   []string{},
	}

	val := reflect.ValueOf(v)
	typ := reflect.TypeOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	if val.Kind() != reflect.Struct {
		return schema
	}

	properties := schema["properties"].(map[string]interface{})
	var required []string

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() || field.Name == "BaseStructured" {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		jsonName := field.Name
		omitEmpty := false
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				jsonName = parts[0]
			}
			for _, part := range parts[1:] {
				if part == "omitempty" {
					omitEmpty = true
				}
			}
		}

		properties[jsonName] = generateFieldSchema(val.Field(i).Type(), field.Tag.Get("description"))
		if !omitEmpty {
			required = append(required, jsonName)
		}
	}

	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func generateFieldSchema(t reflect.Type, description string) map[string]interface{} {
	schema := make(map[string]interface{})
	if description != "" {
		schema["description"] = description
	}

	switch t.Kind() {
	case reflect.String:
		schema["type"] = "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		schema["type"] = "integer"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema["type"] = "integer"
		schema["minimum"] = 0
	case reflect.Float32, reflect.Float64:
		schema["type"] = "number"
	case reflect.Bool:
		schema["type"] = "boolean"
	case reflect.Slice, reflect.Array:
		schema["type"] = "array"
		schema["items"] = generateFieldSchema(t.Elem(), "")
	case reflect.Map, reflect.Struct:
		schema["type"] = "object"
	case reflect.Interface:
		schema["oneOf"] = []map[string]interface{}{
			{"type": "string"},
			{"type": "number"},
			{"type": "boolean"},
			{"type": "object"},
			{"type": "array"},
			{"type": "null"},
		}
	case reflect.Ptr:
		return generateFieldSchema(t.Elem(), description)
	default:
		schema["type"] = "string"
	}
	return schema
}

// ParseStructured unmarshals a model completion into T and validates it. The
// template argument only decides whether T is a value or pointer type.
func ParseStructured[T Structured](jsonStr string, template T) (*StructuredResponse[T], error) {
	var result T

	templateType := reflect.TypeOf(template)
	wantPtr := templateType.Kind() == reflect.Ptr
	if wantPtr {
		templateType = templateType.Elem()
	}

	// Unmarshal always targets a pointer to the underlying struct.
	ptrValue := reflect.New(templateType)
	if err := json.Unmarshal([]byte(jsonStr), ptrValue.Interface()); err != nil {
		return nil, fmt.Errorf("json parsing error: %w", err)
	}

	if wantPtr {
		result = ptrValue.Interface().(T)
	} else {
		result = ptrValue.Elem().Interface().(T)
	}

	validation := &ValidationResult{RawJSON: jsonStr}
	if err := result.Validate(); err != nil {
		validation.Errors = []string{err.Error()}
		return &StructuredResponse[T]{
			Data:       result,
			Validation: validation,
		}, fmt.Errorf("validation failed: %w", err)
	}
	validation.Valid = true

	return &StructuredResponse[T]{
		Data:       result,
		Validation: validation,
	}, nil
}
