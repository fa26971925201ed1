// Package llm provides chat model clients used to draft outreach emails.
package llm

import "context"

// Client generates text from a system message and a user prompt.
// Use this interface for dependency injection to enable fakes in tests.
type Client interface {
	// GenerateResponse returns the model's text reply.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetProvider returns the provider name, e.g. "openai".
	GetProvider() string
}

var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
)
