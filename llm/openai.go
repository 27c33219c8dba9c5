// OpenAI-compatible Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for the Chat Completions API
// - DeepSeek served through the same client with a different base URL

package llm

import (
	"context"
	"fmt"

	jsonutil "github.com/richinex/tripsense/internal/json"
	openai "github.com/sashabaranov/go-openai"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// OpenAIProvider implements the Provider interface for OpenAI-compatible APIs.
type OpenAIProvider struct {
	client *openai.Client
	name   string
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		name:   "openai",
		model:  model,
	}
}

// NewDeepSeekProvider creates a provider for DeepSeek's OpenAI-compatible API.
func NewDeepSeekProvider(apiKey, model string) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepseekBaseURL

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		name:   "deepseek",
		model:  model,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the current model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Generate sends a chat completion request. ThinkingBudget is not forwarded.
func (p *OpenAIProvider) Generate(ctx context.Context, contents string, cfg GenerationConfig) (Response, error) {
	var messages []openai.ChatCompletionMessage
	if cfg.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: cfg.SystemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: contents,
	})

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   int(cfg.MaxOutputTokens),
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
	}
	if len(cfg.Tools) > 0 {
		req.Tools = convertToOpenAITools(cfg.Tools)
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("chat completion failed: %w", err)
	}

	var parts []Part
	if len(resp.Choices) > 0 {
		msg := resp.Choices[0].Message
		if msg.Content != "" {
			parts = append(parts, TextPart{Text: msg.Content})
		}
		for _, tc := range msg.ToolCalls {
			args, err := jsonutil.DecodeArgs(tc.Function.Arguments)
			if err != nil {
				return Response{}, fmt.Errorf("tool call %s: %w", tc.Function.Name, err)
			}
			parts = append(parts, ToolCallPart{Call: ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: args,
			}})
		}
	}

	usage := &TokenUsage{
		PromptTokens:     uint32(resp.Usage.PromptTokens),
		CompletionTokens: uint32(resp.Usage.CompletionTokens),
		TotalTokens:      uint32(resp.Usage.TotalTokens),
	}

	return Response{Parts: parts, Usage: usage}, nil
}

// convertToOpenAITools converts tool definitions to OpenAI format.
// Schema marshals directly as JSON Schema.
func convertToOpenAITools(tools []ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
