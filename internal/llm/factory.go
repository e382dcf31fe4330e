package llm

import (
	"strings"

	"github.com/rotisserie/eris"
)

// NewProvider creates a provider from configuration. It returns nil without
// error when no provider or credential is configured; callers then take the
// heuristic path.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		if config.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		if config.APIKey == "" {
			return nil, nil
		}
		return NewAnthropicProvider(config)

	case "ollama":
		if config.BaseURL == "" {
			return nil, nil
		}
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, eris.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
