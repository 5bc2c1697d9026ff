package llm

import (
	"context"
)

// Client turns a prompt into the model's text reply.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}
