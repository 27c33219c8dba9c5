// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - GenerateContentConfig assembly (sampling, thinking budget, safety)
// - Conversion of candidate parts into Part values

package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	initErr error // Stores client initialization error for deferred reporting
}

// NewGeminiProvider creates a new Gemini provider.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if apiKey == "" {
		return &GeminiProvider{model: model, initErr: fmt.Errorf("gemini: %w", ErrNotConfigured)}
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiProvider{
			model:   model,
			initErr: fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}

	return &GeminiProvider{client: client, model: model}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the current model.
func (p *GeminiProvider) Model() string {
	return p.model
}

// Generate sends a single-prompt request to Gemini.
func (p *GeminiProvider) Generate(ctx context.Context, contents string, cfg GenerationConfig) (Response, error) {
	if p.initErr != nil {
		return Response{}, p.initErr
	}
	if p.client == nil {
		return Response{}, fmt.Errorf("gemini client not initialized")
	}

	request := []*genai.Content{genai.NewContentFromText(contents, genai.RoleUser)}

	response, err := p.client.Models.GenerateContent(ctx, p.model, request, buildGeminiConfig(cfg))
	if err != nil {
		return Response{}, fmt.Errorf("generate content failed: %w", err)
	}

	var parts []Part
	if len(response.Candidates) > 0 && response.Candidates[0].Content != nil {
		parts = partsFromGemini(response.Candidates[0].Content.Parts)
	}

	var usage *TokenUsage
	if response.UsageMetadata != nil {
		usage = &TokenUsage{
			PromptTokens:     uint32(response.UsageMetadata.PromptTokenCount),
			CompletionTokens: uint32(response.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      uint32(response.UsageMetadata.TotalTokenCount),
		}
	}

	return Response{Parts: parts, Usage: usage}, nil
}

func buildGeminiConfig(cfg GenerationConfig) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		MaxOutputTokens: cfg.MaxOutputTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(cfg.ThinkingBudget),
		},
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockLowAndAbove},
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockLowAndAbove},
		},
	}
	if cfg.TopP > 0 {
		config.TopP = genai.Ptr(cfg.TopP)
	}
	if cfg.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	if len(cfg.Tools) > 0 {
		config.Tools = convertToGeminiTools(cfg.Tools)
	}
	return config
}

// partsFromGemini keeps response order; thought summaries are skipped.
func partsFromGemini(in []*genai.Part) []Part {
	var parts []Part
	for _, part := range in {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			parts = append(parts, ToolCallPart{Call: ToolCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			}})
			continue
		}
		if part.Text != "" && !part.Thought {
			parts = append(parts, TextPart{Text: part.Text})
		}
	}
	return parts
}

// convertToGeminiTools converts tool definitions to Gemini format.
func convertToGeminiTools(tools []ToolDefinition) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertToGeminiSchema(t.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertToGeminiSchema recursively converts a parameter schema to Gemini format.
// Arrays without an item schema default to string items.
func convertToGeminiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	schema := &genai.Schema{
		Type:        mapToGeminiType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}

	if schema.Type == genai.TypeArray {
		if s.Items != nil {
			schema.Items = convertToGeminiSchema(s.Items)
		} else {
			schema.Items = &genai.Schema{Type: genai.TypeString}
		}
	}

	if len(s.Properties) > 0 {
		schema.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			schema.Properties[name] = convertToGeminiSchema(prop)
		}
	}

	return schema
}

// mapToGeminiType maps a schema type to its Gemini equivalent.
func mapToGeminiType(t SchemaType) genai.Type {
	switch t {
	case TypeString:
		return genai.TypeString
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	case TypeArray:
		return genai.TypeArray
	case TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
