package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/retry"
)

// retryTestConfig keeps retry delays negligible in tests.
var retryTestConfig = retry.Config{
	MaxRetries:   3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2.0,
}

func newTestGateway(primary Client, fallback FallbackBackend, cfg *GatewayConfig) *Gateway {
	return NewGateway(primary, fallback, cfg, zap.NewNop())
}

func TestGatewayExtractQuestions_PrimarySuccess(t *testing.T) {
	mock := NewMockClient()
	mock.ModelName = "gpt-test"
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `[{"question_text": "Describe your methodology."}]`, nil
	}

	gateway := newTestGateway(mock, NewHeuristicBackend(), nil)

	result, err := gateway.ExtractQuestions(context.Background(), "doc text", "rfp", "en")
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", result.ExtractedBy)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "Describe your methodology.", result.Candidates[0].QuestionText)
	assert.Equal(t, 1, mock.CompleteCalls)
	assert.NoError(t, result.FallbackCause)
}

func TestGatewayExtractQuestions_FallbackOnPrimaryFailure(t *testing.T) {
	mock := NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", NewError(ErrorTypeAuth, "authentication failed", false, nil)
	}

	gateway := newTestGateway(mock, NewHeuristicBackend(), nil)

	result, err := gateway.ExtractQuestions(context.Background(),
		"Describe your methodology.", "rfp", "en")
	require.NoError(t, err)
	assert.Equal(t, HeuristicProvenance, result.ExtractedBy)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, FallbackExtractionConfidence, result.Candidates[0].ConfidenceScore)

	require.Error(t, result.FallbackCause)
	assert.Contains(t, result.FallbackCause.Error(), "authentication failed")
}

func TestGatewayExtractQuestions_MalformedOutputTriggersFallback(t *testing.T) {
	mock := NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "I could not find any questions.", nil
	}

	gateway := newTestGateway(mock, NewHeuristicBackend(), nil)

	result, err := gateway.ExtractQuestions(context.Background(),
		"Describe your methodology.", "rfp", "en")
	require.NoError(t, err)
	assert.Equal(t, HeuristicProvenance, result.ExtractedBy)
}

func TestGatewayExtractQuestions_NilPrimaryUsesFallback(t *testing.T) {
	gateway := newTestGateway(nil, NewHeuristicBackend(), nil)

	result, err := gateway.ExtractQuestions(context.Background(),
		"Describe your methodology.", "rfp", "en")
	require.NoError(t, err)
	assert.Equal(t, HeuristicProvenance, result.ExtractedBy)
}

func TestGatewayExtractQuestions_BothBackendsFail(t *testing.T) {
	mock := NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", NewError(ErrorTypeEndpoint, "connection failed", false, nil)
	}
	fallback := &MockFallback{
		ExtractQuestionsFunc: func(text string) ([]QuestionCandidate, error) {
			return nil, fmt.Errorf("detector exploded")
		},
	}

	gateway := newTestGateway(mock, fallback, nil)

	_, err := gateway.ExtractQuestions(context.Background(), "doc text", "rfp", "en")
	require.Error(t, err)

	var both *BothBackendsError
	require.True(t, errors.As(err, &both))
	assert.Equal(t, "question extraction", both.Operation)
	assert.Contains(t, err.Error(), "connection failed")
	assert.Contains(t, err.Error(), "detector exploded")
}

func TestGatewayGenerateResponse_PrimarySuccess(t *testing.T) {
	mock := NewMockClient()
	mock.ModelName = "gpt-test"
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "We have 250 employees across three offices.", nil
	}

	gateway := newTestGateway(mock, NewHeuristicBackend(), nil)

	resp, err := gateway.GenerateResponse(context.Background(), GenerationRequest{
		QuestionText:    "How many employees does your company have?",
		ContextSnippets: []string{"About us: 250 staff"},
	})
	require.NoError(t, err)
	assert.Equal(t, "We have 250 employees across three offices.", resp.ResponseText)
	assert.Equal(t, PrimaryGenerationConfidence, resp.ConfidenceScore)
	assert.Equal(t, "gpt-test", resp.GeneratedBy)
	assert.Equal(t, 7, resp.WordCount)
	assert.Equal(t, []string{"About us: 250 staff"}, resp.SourceDocuments)
}

func TestGatewayGenerateResponse_EmptyOutputTriggersFallback(t *testing.T) {
	mock := NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "   \n", nil
	}

	gateway := newTestGateway(mock, NewHeuristicBackend(), nil)

	resp, err := gateway.GenerateResponse(context.Background(), GenerationRequest{
		QuestionText: "Describe your methodology.",
	})
	require.NoError(t, err)
	assert.Equal(t, TemplateProvenance, resp.GeneratedBy)
	assert.Equal(t, FallbackGenerationConfidence, resp.ConfidenceScore)
	require.Error(t, resp.FallbackCause)
	assert.Contains(t, resp.FallbackCause.Error(), "empty generation output")
}

func TestGatewayGenerateResponse_BothBackendsFail(t *testing.T) {
	mock := NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", NewError(ErrorTypeRateLimit, "rate limited", false, nil)
	}
	fallback := &MockFallback{
		GenerateResponseFunc: func(req GenerationRequest) (*ResponseCandidate, error) {
			return nil, fmt.Errorf("template exploded")
		},
	}

	gateway := newTestGateway(mock, fallback, nil)

	_, err := gateway.GenerateResponse(context.Background(), GenerationRequest{
		QuestionText: "Describe your methodology.",
	})
	require.Error(t, err)

	var both *BothBackendsError
	require.True(t, errors.As(err, &both))
	assert.Equal(t, "response generation", both.Operation)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Contains(t, err.Error(), "template exploded")
}

func TestGatewayComplete_RetriesRetryableErrors(t *testing.T) {
	mock := NewMockClient()
	calls := 0
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		calls++
		if calls < 3 {
			return "", NewError(ErrorTypeEndpoint, "connection failed", true, nil)
		}
		return `[{"question_text": "Q?"}]`, nil
	}

	gateway := newTestGateway(mock, NewHeuristicBackend(), &GatewayConfig{
		Retry: &retryTestConfig,
	})

	result, err := gateway.ExtractQuestions(context.Background(), "doc", "rfp", "en")
	require.NoError(t, err)
	assert.Equal(t, "mock-model", result.ExtractedBy)
	assert.Equal(t, 3, calls)
}

func TestGatewayComplete_NoRetryOnPermanentError(t *testing.T) {
	mock := NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", NewError(ErrorTypeAuth, "authentication failed", false, nil)
	}

	gateway := newTestGateway(mock, NewHeuristicBackend(), &GatewayConfig{
		Retry: &retryTestConfig,
	})

	result, err := gateway.ExtractQuestions(context.Background(),
		"Describe your methodology.", "rfp", "en")
	require.NoError(t, err)
	assert.Equal(t, HeuristicProvenance, result.ExtractedBy)
	assert.Equal(t, 1, mock.CompleteCalls)
}

func TestGatewayExtractionPromptTruncation(t *testing.T) {
	mock := NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `[]`, nil
	}

	gateway := newTestGateway(mock, NewHeuristicBackend(), &GatewayConfig{
		ExtractionMaxChars: 100,
	})

	longText := make([]byte, 500)
	for i := range longText {
		longText[i] = 'a'
	}

	_, err := gateway.ExtractQuestions(context.Background(), string(longText), "rfp", "en")
	require.NoError(t, err)
	assert.NotContains(t, mock.LastPrompt, string(longText))
	assert.Contains(t, mock.LastPrompt, string(longText[:100]))
}
