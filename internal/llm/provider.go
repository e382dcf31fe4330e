package llm

import (
	"context"

	"github.com/ppiankov/aontas/internal/model"
)

// Provider sends a single completion attempt to a text-generation API.
// Retries belong to the Caller, never to a provider.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete performs one request. A 2xx response always yields a
	// Completion, even when its content is not valid JSON. Any other
	// HTTP status is reported as a *StatusError.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// CompletionRequest is the input of one model call
type CompletionRequest struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Completion is the raw output of a successful model call
type Completion struct {
	// Content is the model's message text, expected to be a JSON object
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for response generation
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts the application config into provider config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		HTTPProxy:   cfg.HTTP.HTTPProxy,
		HTTPSProxy:  cfg.HTTP.HTTPSProxy,
		NoProxy:     cfg.HTTP.NoProxy,
	}
}

// withDefaults fills request fields left empty from provider config
func (c Config) withDefaults(req CompletionRequest, fallbackModel string) CompletionRequest {
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.Model == "" {
		req.Model = fallbackModel
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.MaxTokens
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 1800
	}
	if req.Temperature == 0 {
		req.Temperature = c.Temperature
	}
	return req
}
