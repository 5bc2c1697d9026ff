package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("PROMPTS_FILE", "")
	t.Setenv("MAX_UPLOAD_SIZE", "")
	t.Setenv("MAX_PROMPT_CHARS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.MaxPromptChars)

	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLMModel)
	assert.False(t, cfg.LLMConfigured())
	assert.Equal(t, int64(defaultMaxUploadSize), cfg.MaxUploadSize)
	assert.Equal(t, DefaultPrompts(), cfg.Prompts)
}

func TestLoadProviderModelDefault(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.True(t, cfg.LLMConfigured())
}

func TestLoadMaxPromptChars(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("MAX_PROMPT_CHARS", "12000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12000, cfg.MaxPromptChars)

	t.Setenv("MAX_PROMPT_CHARS", "-1")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "watson")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadPromptsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.toml")
	content := "[prompts]\ninvoice = \"Invoice fields please: %s\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	prompts, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, "Invoice fields please: %s", prompts.Invoice)
	assert.Equal(t, DefaultPOPrompt, prompts.PO)
}

func TestLoadPromptsMissingFile(t *testing.T) {
	_, err := LoadPrompts(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("COMPARE_URL", "http://compare.internal:8000/")
	t.Setenv("COMPARE_TIMEOUT", "90s")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://compare.internal:8000", cfg.CompareURL)
	assert.Equal(t, 90*time.Second, cfg.CompareTimeout)
}

func TestLoadClientBadTimeout(t *testing.T) {
	t.Setenv("COMPARE_TIMEOUT", "soon")

	_, err := LoadClient()
	assert.Error(t, err)
}
