package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BerylCAtieno/invoice-checker/internal/config"
	"github.com/BerylCAtieno/invoice-checker/internal/llm"
	"github.com/BerylCAtieno/invoice-checker/internal/models"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
)

// ErrUnparseable means the model answered but not with usable JSON.
var ErrUnparseable = errors.New("llm response is not valid JSON")

// GenerationError wraps a failure of the model call itself.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "llm generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Analyzer extracts invoice or purchase-order fields from document text in
// two steps: Generate asks the model, Parse reads its reply. Callers that
// analyze several documents can make every model call before parsing any reply.
type Analyzer interface {
	Generate(ctx context.Context, kind models.Kind, text string) (string, error)
	Parse(kind models.Kind, reply string) (*models.ExtractedFields, error)
}

type Option func(*llmAnalyzer)

// WithMaxText caps the document text put into a prompt at n characters.
// Zero, the default, sends the whole text.
func WithMaxText(n int) Option {
	return func(a *llmAnalyzer) {
		a.maxText = n
	}
}

type llmAnalyzer struct {
	client  llm.Client
	prompts config.Prompts
	maxText int
	logger  *utils.Logger
}

func NewAnalyzer(client llm.Client, prompts config.Prompts, logger *utils.Logger, opts ...Option) Analyzer {
	a := &llmAnalyzer{
		client:  client,
		prompts: prompts,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Generate returns the raw model reply. Failures are *GenerationError.
func (a *llmAnalyzer) Generate(ctx context.Context, kind models.Kind, text string) (string, error) {
	if a.maxText > 0 {
		if cut := truncate(text, a.maxText); len(cut) < len(text) {
			a.logger.Warn("Document text truncated for prompt", "kind", kind, "max_chars", a.maxText)
			text = cut
		}
	}

	template := a.prompts.Invoice
	if kind == models.KindPO {
		template = a.prompts.PO
	}

	content, err := a.client.Generate(ctx, fmt.Sprintf(template, text))
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return content, nil
}

// Parse decodes a reply, bare or wrapped in a code block or prose. Failures
// wrap ErrUnparseable.
func (a *llmAnalyzer) Parse(kind models.Kind, reply string) (*models.ExtractedFields, error) {
	var fields models.ExtractedFields
	if err := json.Unmarshal([]byte(reply), &fields); err != nil {
		content := extractJSON(reply)
		if err := json.Unmarshal([]byte(content), &fields); err != nil {
			a.logger.Error("Failed to parse LLM response", "kind", kind, "content", content)
			return nil, fmt.Errorf("%w: %w", ErrUnparseable, err)
		}
	}

	a.logger.Debug("Extracted document fields",
		"kind", kind,
		"vendor", fields.Vendor,
		"items", len(fields.Items),
		"total_present", fields.TotalAmount.Present,
		"total_valid", fields.TotalAmount.Valid)

	return &fields, nil
}

// extractJSON pulls the JSON object out of a reply wrapped in a markdown code
// block or surrounded by prose.
func extractJSON(content string) string {
	if start := strings.Index(content, "```"); start >= 0 {
		body := content[start+3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			// drop the language tag line, e.g. ```json
			body = body[nl+1:]
		}
		if end := strings.Index(body, "```"); end >= 0 {
			return strings.TrimSpace(body[:end])
		}
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		return content[start : end+1]
	}

	return content
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
