// Package llm provides the chat-completion clients used to turn a metadata
// document into an engineering brief.
package llm

import (
	"context"
)

// GenerateRequest is a single system+user exchange.
type GenerateRequest struct {
	SystemMessage string
	Prompt        string
	Temperature   float64
	MaxTokens     int
}

// GenerateResponseResult holds the generated text and token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// TextGenerator generates text from a prompt.
// Use this interface for dependency injection to enable mocking in tests.
type TextGenerator interface {
	// GenerateResponse runs one completion. Failures are *Error.
	GenerateResponse(ctx context.Context, req GenerateRequest) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure clients implement TextGenerator at compile time.
var (
	_ TextGenerator = (*Client)(nil)
	_ TextGenerator = (*AnthropicClient)(nil)
	_ TextGenerator = (*MockTextGenerator)(nil)
)
