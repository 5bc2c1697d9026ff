package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DatabasePath string
	LogLevel     string

	// LLM
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMBaseURL  string
	Prompts     Prompts
	// MaxPromptChars caps the document text sent to the model, in characters.
	// Zero sends the whole text.
	MaxPromptChars int

	// S3
	S3Enabled         bool
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// Upload limits
	MaxUploadSize int64

	// Number of invoice/PO pairs processed at once
	CompareConcurrency int
}

// ClientConfig configures the upload client front ends (web UI and CLI).
type ClientConfig struct {
	WebPort        string
	CompareURL     string
	CompareTimeout time.Duration
	LogLevel       string
}

const (
	defaultMaxUploadSize = 30 << 20
	defaultConcurrency   = 2
)

var defaultModels = map[string]string{
	"gemini":     "gemini-2.5-pro",
	"openai":     "gpt-4o-mini",
	"claude":     "claude-3-5-sonnet-latest",
	"openrouter": "openai/gpt-4o-mini",
}

// Load reads the comparison service configuration. A missing LLM key is not an
// error here: the service starts and answers requests with a 400 until one is set.
func Load() (*Config, error) {
	loadDotEnv()

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))
	if _, ok := defaultModels[provider]; !ok {
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8000"),
		DatabasePath:       getEnv("DATABASE_PATH", "data/invoicechecker.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LLMProvider:        provider,
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", defaultModels[provider]),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		S3Enabled:          getEnv("S3_ENABLED", "false") == "true",
		S3Endpoint:         getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "comparisons"),
		S3UseSSL:           getEnv("S3_USE_SSL", "false") == "true",
		MaxUploadSize:      getEnvInt64("MAX_UPLOAD_SIZE", defaultMaxUploadSize),
		CompareConcurrency: int(getEnvInt64("COMPARE_CONCURRENCY", defaultConcurrency)),
		MaxPromptChars:     int(getEnvInt64("MAX_PROMPT_CHARS", 0)),
	}

	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}
	if cfg.CompareConcurrency <= 0 {
		cfg.CompareConcurrency = defaultConcurrency
	}
	if cfg.MaxPromptChars < 0 {
		return nil, fmt.Errorf("invalid MAX_PROMPT_CHARS %d", cfg.MaxPromptChars)
	}

	prompts, err := LoadPrompts(getEnv("PROMPTS_FILE", ""))
	if err != nil {
		return nil, err
	}
	cfg.Prompts = prompts

	return cfg, nil
}

// LLMConfigured reports whether comparisons can be served.
func (c *Config) LLMConfigured() bool {
	return c.LLMAPIKey != ""
}

func LoadClient() (*ClientConfig, error) {
	loadDotEnv()

	timeout, err := time.ParseDuration(getEnv("COMPARE_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMPARE_TIMEOUT: %w", err)
	}

	return &ClientConfig{
		WebPort:        getEnv("WEB_PORT", "3000"),
		CompareURL:     strings.TrimRight(getEnv("COMPARE_URL", "http://localhost:8000"), "/"),
		CompareTimeout: timeout,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}, nil
}

func loadDotEnv() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
