package embedding

import (
	"errors"
	"fmt"

	"github.com/Harshitk-cp/companion/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

var (
	ErrUnknownProvider = errors.New("unknown embedding provider")
	ErrMissingAPIKey   = errors.New("embedding API key is required")
)

// NewClient returns the raw embedder for provider. The mock provider needs no key.
func NewClient(provider, apiKey, model string) (domain.EmbeddingClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("%s: %w", provider, ErrMissingAPIKey)
		}
		return NewOpenAIClient(apiKey, model), nil
	case ProviderMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("%w %q (valid options: openai, mock)", ErrUnknownProvider, provider)
	}
}

// NewCached returns the embedder for provider behind a cache of cacheBytes.
func NewCached(provider, apiKey, model string, cacheBytes int64) (*CachedClient, error) {
	inner, err := NewClient(provider, apiKey, model)
	if err != nil {
		return nil, err
	}
	return NewCachedClient(inner, cacheBytes)
}
