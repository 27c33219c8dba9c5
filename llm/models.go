// Package llm provides shared data models for LLM providers.
package llm

import "strings"

// SchemaType is a JSON Schema primitive type name.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
)

// Schema describes a tool parameter. It marshals as a JSON Schema fragment.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// ToolDefinition defines a tool that the LLM can call.
type ToolDefinition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters"`
}

// GenerationConfig holds the parameters sent with one model call.
type GenerationConfig struct {
	SystemInstruction string
	Temperature       float32
	MaxOutputTokens   int32
	TopP              float32
	ThinkingBudget    int32
	Tools             []ToolDefinition
}

// WithoutTools returns a copy of the config with no tools attached.
func (c GenerationConfig) WithoutTools() GenerationConfig {
	c.Tools = nil
	return c
}

// ToolCall is a structured tool invocation requested by the model.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Part is one element of a model response: either TextPart or ToolCallPart.
type Part interface {
	isPart()
}

// TextPart is plain generated text.
type TextPart struct {
	Text string
}

// ToolCallPart is a request to invoke a tool.
type ToolCallPart struct {
	Call ToolCall
}

func (TextPart) isPart()     {}
func (ToolCallPart) isPart() {}

// Response is the provider-neutral result of a Generate call.
type Response struct {
	Parts []Part
	Usage *TokenUsage
}

// TokenUsage contains token usage statistics reported by the backend.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// Text joins the non-empty text parts in order with newlines.
func (r Response) Text() string {
	var texts []string
	for _, p := range r.Parts {
		if t, ok := p.(TextPart); ok && t.Text != "" {
			texts = append(texts, t.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ToolCalls returns every requested tool call in order.
func (r Response) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range r.Parts {
		if c, ok := p.(ToolCallPart); ok {
			calls = append(calls, c.Call)
		}
	}
	return calls
}

// HasToolCalls reports whether any part is a tool call.
func (r Response) HasToolCalls() bool {
	for _, p := range r.Parts {
		if _, ok := p.(ToolCallPart); ok {
			return true
		}
	}
	return false
}
