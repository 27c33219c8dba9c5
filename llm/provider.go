// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for model backends.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Conversion of SDK response objects into Part values
// - Provider-specific error handling

package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a provider is used without credentials.
var ErrNotConfigured = errors.New("llm provider not configured")

// Provider defines the abstract interface for LLM providers.
// Implementations translate a single-prompt generation request into the
// backend's wire format and return the response as ordered Parts, so callers
// never touch SDK types.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Generate sends contents with the given generation parameters.
	// Tools are advertised only when cfg.Tools is non-empty.
	Generate(ctx context.Context, contents string, cfg GenerationConfig) (Response, error)
}
