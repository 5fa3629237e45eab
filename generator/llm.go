package generator

import (
	"context"

	"github.com/rotisserie/eris"
)

// LLMClient abstracts the model so it can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the provider configuration handed to concrete clients.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewLLM picks the client for s.Provider. DeepSeek is reached through its
// OpenAI-compatible endpoint and needs BaseURL.
func NewLLM(s LLMSettings) (LLMClient, error) {
	switch s.Provider {
	case "", "mock":
		return MockLLM{}, nil
	case "openai":
		return NewOpenAILLMFromConfig(&s)
	case "deepseek":
		if s.BaseURL == "" {
			return nil, eris.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return NewOpenAILLMFromConfig(&s)
	default:
		return nil, eris.Errorf("llm provider %s not supported", s.Provider)
	}
}
