// Package llm provides the model gateway used for question extraction and
// response generation: a primary hosted-model client (OpenAI-compatible or
// Anthropic) with a deterministic local fallback backend.
package llm

import (
	"context"
)

// Client defines the interface for raw prompt completions against a hosted
// generative model. Use this interface for dependency injection to enable
// substituting backends in tests.
type Client interface {
	// Complete sends a prompt and returns the model's raw text output.
	Complete(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// Model returns the configured model name, used as provenance label.
	Model() string
}

// FallbackBackend is the deterministic, non-network strategy used when the
// primary backend fails. The default implementation is the heuristic detector
// for extraction and a template generator for responses.
type FallbackBackend interface {
	ExtractQuestions(text string) ([]QuestionCandidate, error)
	GenerateResponse(req GenerationRequest) (*ResponseCandidate, error)
}

// Ensure implementations satisfy the interfaces at compile time.
var (
	_ Client          = (*OpenAIClient)(nil)
	_ Client          = (*AnthropicClient)(nil)
	_ Client          = (*MockClient)(nil)
	_ FallbackBackend = (*HeuristicBackend)(nil)
)
