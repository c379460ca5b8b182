package llm

import (
	"fmt"

	"github.com/pds-ultimate/research/internal/domain"
)

// Provider constants
const (
	ProviderDeepSeek = "deepseek"
	ProviderMock     = "mock"
)

// NewClient creates an LLM client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewClient(provider, apiKey string) (domain.LLMClient, error) {
	switch provider {
	case ProviderDeepSeek:
		if apiKey == "" {
			return nil, fmt.Errorf("DEEPSEEK_API_KEY is required for DeepSeek provider")
		}
		return NewDeepSeekClient(apiKey), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: deepseek, mock)", provider)
	}
}
