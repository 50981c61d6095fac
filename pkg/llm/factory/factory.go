// Package factory builds the configured chat backend.
package factory

import (
	"fmt"

	"ai-shopping-assistant-be/pkg/llm"
	"ai-shopping-assistant-be/pkg/llm/compat"
	"ai-shopping-assistant-be/pkg/llm/ollama"
)

// compatBaseURLs lists the OpenAI-compatible hosted backends.
var compatBaseURLs = map[string]string{
	"groq":        compat.GroqBaseURL,
	"huggingface": compat.HuggingFaceBaseURL,
}

// NewLLMProvider returns a provider for providerType. An empty baseURL
// selects the backend's public endpoint.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	if providerType == "ollama" {
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	}

	defaultURL, ok := compatBaseURLs[providerType]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
	if baseURL == "" {
		baseURL = defaultURL
	}
	return compat.NewProvider(apiKey, baseURL, modelName), nil
}
