// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - Tool schema translation into input schemas

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the current model.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// Generate sends a Messages API request. Only temperature is forwarded as a
// sampling parameter.
func (p *AnthropicProvider) Generate(ctx context.Context, contents string, cfg GenerationConfig) (Response, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(cfg.MaxOutputTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(contents))},
		Temperature: anthropic.Float(float64(cfg.Temperature)),
	}

	if cfg.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: cfg.SystemInstruction},
		}
	}
	if len(cfg.Tools) > 0 {
		params.Tools = convertToAnthropicTools(cfg.Tools)
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("messages request failed: %w", err)
	}

	var parts []Part
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			parts = append(parts, TextPart{Text: variant.Text})
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			inputJSON, _ := json.Marshal(variant.Input)
			if len(inputJSON) > 0 && string(inputJSON) != "null" {
				if err := json.Unmarshal(inputJSON, &args); err != nil {
					return Response{}, fmt.Errorf("tool call %s: invalid input: %w", variant.Name, err)
				}
			}
			parts = append(parts, ToolCallPart{Call: ToolCall{
				ID:   variant.ID,
				Name: variant.Name,
				Args: args,
			}})
		}
	}

	var usage *TokenUsage
	if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
		usage = &TokenUsage{
			PromptTokens:     uint32(message.Usage.InputTokens),
			CompletionTokens: uint32(message.Usage.OutputTokens),
			TotalTokens:      uint32(message.Usage.InputTokens + message.Usage.OutputTokens),
		}
	}

	return Response{Parts: parts, Usage: usage}, nil
}

// convertToAnthropicTools converts tool definitions to Anthropic format.
func convertToAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		var properties map[string]*Schema
		var required []string
		if t.Parameters != nil {
			properties = t.Parameters.Properties
			required = t.Parameters.Required
		}

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   required,
			},
		}
		result[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return result
}

// Verify AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)
