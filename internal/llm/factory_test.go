package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/invoice-checker/internal/config"
)

func TestNewClientProviders(t *testing.T) {
	ctx := context.Background()

	c, err := NewClient(ctx, &config.Config{LLMProvider: "openai", LLMAPIKey: "k", LLMModel: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewClient(ctx, &config.Config{LLMProvider: "openrouter", LLMAPIKey: "k", LLMModel: "openai/gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewClient(ctx, &config.Config{LLMProvider: "Claude", LLMAPIKey: "k", LLMModel: "claude-3-5-sonnet-latest"})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, c)
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), &config.Config{LLMProvider: "watson"})
	assert.ErrorContains(t, err, "unsupported llm provider")
}

func TestClaudeListModelsReportsConfiguredModel(t *testing.T) {
	c := NewClaudeClient("k", "claude-3-5-sonnet-latest", "")
	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"claude-3-5-sonnet-latest"}, models)
}
