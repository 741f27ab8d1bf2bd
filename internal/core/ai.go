package core

import "context"

// LLMProvider turns a populated prompt into generated text.
// An empty apiKey means the provider's server-side key.
type LLMProvider interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}
