package llm

import (
	"fmt"
	"strings"
)

// mistralBaseURL is Mistral's OpenAI-compatible chat endpoint
const mistralBaseURL = "https://api.mistral.ai/v1"

// NewProvider creates a provider based on configuration. An empty
// provider name means the semantic stage is disabled and returns nil.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config, "openai")

	case "mistral", "pixtral":
		if config.BaseURL == "" {
			config.BaseURL = mistralBaseURL
		}
		return NewOpenAIProvider(config, "mistral")

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai, mistral, anthropic, ollama)", config.Provider)
	}
}
