package factory

import (
	"fmt"

	"legal-advisor-be/pkg/llm"
	"legal-advisor-be/pkg/llm/groq"
	"legal-advisor-be/pkg/llm/huggingface"
	"legal-advisor-be/pkg/llm/ollama"
)

// NewLLMProvider selects a generation backend by configuration. Adding a
// provider means adding a case here, not branching through business logic.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "groq":
		return groq.NewGroqProvider(apiKey, "", modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, "", modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
