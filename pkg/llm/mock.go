package llm

import (
	"context"
)

// MockClient is a configurable mock for testing gateway behavior.
// Set the function field to control behavior in tests.
type MockClient struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns empty string and nil error.
	CompleteFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// CompleteCalls counts invocations for verification.
	CompleteCalls int

	// LastPrompt records the most recent prompt for assertions.
	LastPrompt string
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{ModelName: "mock-model"}
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	m.CompleteCalls++
	m.LastPrompt = prompt
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, systemMessage, temperature)
	}
	return "", nil
}

// Model implements Client.
func (m *MockClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Reset clears call tracking.
func (m *MockClient) Reset() {
	m.CompleteCalls = 0
	m.LastPrompt = ""
}

// MockFallback is a configurable mock for the fallback backend, used to
// exercise the both-backends-failed path in tests.
type MockFallback struct {
	ExtractQuestionsFunc func(text string) ([]QuestionCandidate, error)
	GenerateResponseFunc func(req GenerationRequest) (*ResponseCandidate, error)
}

// ExtractQuestions implements FallbackBackend.
func (m *MockFallback) ExtractQuestions(text string) ([]QuestionCandidate, error) {
	if m.ExtractQuestionsFunc != nil {
		return m.ExtractQuestionsFunc(text)
	}
	return nil, nil
}

// GenerateResponse implements FallbackBackend.
func (m *MockFallback) GenerateResponse(req GenerationRequest) (*ResponseCandidate, error) {
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(req)
	}
	return &ResponseCandidate{}, nil
}

// Ensure MockFallback implements FallbackBackend at compile time.
var _ FallbackBackend = (*MockFallback)(nil)
