package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/invoice-checker/internal/config"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

func NewClient(ctx context.Context, cfg *config.Config) (Client, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "gemini":
		return NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel)

	case "openai":
		return NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL), nil

	case "openrouter":
		// OpenRouter speaks the OpenAI chat completions protocol.
		baseURL := cfg.LLMBaseURL
		if baseURL == "" {
			baseURL = openRouterBaseURL
		}
		return NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMModel, baseURL), nil

	case "claude":
		return NewClaudeClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLMProvider)
	}
}
