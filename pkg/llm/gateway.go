package llm

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/prompts"
	"github.com/tendercraft/rfp-engine/pkg/retry"
)

// PrimaryGenerationConfidence is the fixed confidence assigned to responses
// drafted by the primary backend. Deliberately higher than the fallback's.
const PrimaryGenerationConfidence = 0.9

// DefaultCallTimeout bounds a single primary-backend call.
const DefaultCallTimeout = 60 * time.Second

// Model call temperatures. Extraction wants near-deterministic output;
// generation tolerates a little variety.
const (
	extractionTemperature = 0.1
	generationTemperature = 0.3
)

// ExtractionResult carries extracted candidates plus the provenance label of
// the backend that produced them. FallbackCause holds the primary backend's
// error when the fallback served the call, nil otherwise.
type ExtractionResult struct {
	Candidates    []QuestionCandidate
	ExtractedBy   string
	FallbackCause error
}

// GatewayConfig tunes gateway behavior.
type GatewayConfig struct {
	// CallTimeout bounds each primary-backend call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
	// ExtractionMaxChars bounds document text embedded in extraction prompts.
	// Zero means prompts.DefaultExtractionMaxChars.
	ExtractionMaxChars int
	// Retry controls the bounded retry pass over retryable primary errors.
	// Nil disables retries (single attempt).
	Retry *retry.Config
}

// Gateway executes extraction and generation requests against a primary
// hosted-model backend, falling back to the deterministic local backend on
// any primary failure. If both backends fail, the returned error names both
// causes; the gateway never silently returns an empty result.
//
// The gateway performs no persistence; it is stateless per call.
type Gateway struct {
	primary  Client
	fallback FallbackBackend
	cfg      GatewayConfig
	logger   *zap.Logger
}

// NewGateway creates a gateway over the given backends. primary may be nil
// when no hosted model is configured; every call then goes straight to the
// fallback backend.
func NewGateway(primary Client, fallback FallbackBackend, cfg *GatewayConfig, logger *zap.Logger) *Gateway {
	resolved := GatewayConfig{}
	if cfg != nil {
		resolved = *cfg
	}
	if resolved.CallTimeout <= 0 {
		resolved.CallTimeout = DefaultCallTimeout
	}
	return &Gateway{
		primary:  primary,
		fallback: fallback,
		cfg:      resolved,
		logger:   logger.Named("gateway"),
	}
}

// ExtractQuestions extracts question candidates from document text, trying
// the primary backend first and the heuristic fallback on failure.
func (g *Gateway) ExtractQuestions(ctx context.Context, text, documentType, language string) (*ExtractionResult, error) {
	primaryErr := g.extractPrimary(ctx, text, documentType, language)
	if primaryErr.err == nil {
		return &ExtractionResult{
			Candidates:  primaryErr.candidates,
			ExtractedBy: g.primary.Model(),
		}, nil
	}

	g.logger.Warn("primary extraction failed, using fallback",
		zap.String("document_type", documentType),
		zap.Error(primaryErr.err))

	candidates, fbErr := g.fallback.ExtractQuestions(text)
	if fbErr != nil {
		return nil, &BothBackendsError{
			Operation:   "question extraction",
			PrimaryErr:  primaryErr.err,
			FallbackErr: fbErr,
		}
	}

	return &ExtractionResult{
		Candidates:    candidates,
		ExtractedBy:   HeuristicProvenance,
		FallbackCause: primaryErr.err,
	}, nil
}

type primaryExtraction struct {
	candidates []QuestionCandidate
	err        error
}

func (g *Gateway) extractPrimary(ctx context.Context, text, documentType, language string) primaryExtraction {
	if g.primary == nil {
		return primaryExtraction{err: NewError(ErrorTypeEndpoint, "primary backend not configured", false, nil)}
	}

	prompt := prompts.BuildQuestionExtractionPrompt(text, documentType, language, g.cfg.ExtractionMaxChars)

	output, err := g.complete(ctx, prompt, prompts.ExtractionSystemMessage, extractionTemperature)
	if err != nil {
		return primaryExtraction{err: err}
	}

	candidates, err := ParseQuestionCandidates(output)
	if err != nil {
		// Malformed output is a hard failure, not a partial result.
		return primaryExtraction{err: err}
	}

	return primaryExtraction{candidates: candidates}
}

// GenerateResponse drafts a response to a question, trying the primary
// backend first and the template fallback on failure.
func (g *Gateway) GenerateResponse(ctx context.Context, req GenerationRequest) (*ResponseCandidate, error) {
	candidate, primaryErr := g.generatePrimary(ctx, req)
	if primaryErr == nil {
		return candidate, nil
	}

	g.logger.Warn("primary generation failed, using fallback",
		zap.Error(primaryErr))

	candidate, fbErr := g.fallback.GenerateResponse(req)
	if fbErr != nil {
		return nil, &BothBackendsError{
			Operation:   "response generation",
			PrimaryErr:  primaryErr,
			FallbackErr: fbErr,
		}
	}

	candidate.FallbackCause = primaryErr
	return candidate, nil
}

func (g *Gateway) generatePrimary(ctx context.Context, req GenerationRequest) (*ResponseCandidate, error) {
	if g.primary == nil {
		return nil, NewError(ErrorTypeEndpoint, "primary backend not configured", false, nil)
	}

	prompt := prompts.BuildResponseGenerationPrompt(req.QuestionText, req.ContextSnippets, req.MaxWords, req.Tone, req.Language)

	output, err := g.complete(ctx, prompt, prompts.GenerationSystemMessage, generationTemperature)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(output)
	if text == "" {
		return nil, NewError(ErrorTypeUnknown, "empty generation output", false, nil)
	}

	return &ResponseCandidate{
		ResponseText:    text,
		WordCount:       len(strings.Fields(text)),
		CharacterCount:  len(text),
		ConfidenceScore: PrimaryGenerationConfidence,
		GeneratedBy:     g.primary.Model(),
		GeneratedAt:     time.Now().UTC(),
		SourceDocuments: req.ContextSnippets,
	}, nil
}

// complete runs one primary call with the configured per-call timeout,
// retrying retryable errors within the configured retry budget. The caller's
// context still cancels the whole attempt sequence.
func (g *Gateway) complete(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
	var output string
	call := func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()

		out, err := g.primary.Complete(callCtx, prompt, systemMessage, temperature)
		if err != nil {
			return err
		}
		output = out
		return nil
	}

	var err error
	if g.cfg.Retry != nil {
		err = retry.DoIfRetryable(ctx, g.cfg.Retry, call)
	} else {
		err = call()
	}
	if err != nil {
		return "", err
	}
	return output, nil
}
