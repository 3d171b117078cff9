package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/audit"
	"github.com/tendercraft/rfp-engine/pkg/database"
	"github.com/tendercraft/rfp-engine/pkg/llm"
	"github.com/tendercraft/rfp-engine/pkg/models"
	"github.com/tendercraft/rfp-engine/pkg/repositories"
)

// GenerateOptions carries the inputs for drafting a response version.
type GenerateOptions struct {
	OrgID            uuid.UUID
	Actor            uuid.UUID
	UseKnowledgeBase bool
	SnippetLimit     int
	Tone             string
	Language         string
}

// ResponseVersions groups a question's current response with its history.
// History is ordered newest version first and excludes the current response.
type ResponseVersions struct {
	Current *models.Response   `json:"current"`
	History []*models.Response `json:"history"`
}

// ResponseService manages the versioned response lifecycle: generation,
// manual edits, and review transitions.
type ResponseService interface {
	// Generate drafts a new current response version for a question. Any
	// existing current version is demoted, never mutated.
	Generate(ctx context.Context, questionID uuid.UUID, opts GenerateOptions) (*models.Response, error)

	// Edit replaces a response's text in place, recomputing counts. Editing
	// generated text reclassifies the response as hybrid.
	Edit(ctx context.Context, responseID uuid.UUID, newText string, editor uuid.UUID) (*models.Response, error)

	// SubmitForReview moves a draft response into review.
	SubmitForReview(ctx context.Context, responseID uuid.UUID, reviewer uuid.UUID) (*models.Response, error)

	// Approve marks a response approved. Any active response may be
	// approved regardless of its prior status.
	Approve(ctx context.Context, responseID uuid.UUID, approver uuid.UUID) (*models.Response, error)

	// Reject marks a response rejected. Same permissiveness as Approve.
	Reject(ctx context.Context, responseID uuid.UUID, reviewer uuid.UUID) (*models.Response, error)

	// ListVersions returns the current response and the rest of the history
	// for a question.
	ListVersions(ctx context.Context, questionID uuid.UUID) (*ResponseVersions, error)
}

type responseService struct {
	questions repositories.QuestionRepository
	responses repositories.ResponseRepository
	knowledge KnowledgeService
	gateway   ModelGateway
	auditor   *audit.Auditor
	logger    *zap.Logger
}

// NewResponseService creates a new ResponseService.
func NewResponseService(
	questions repositories.QuestionRepository,
	responses repositories.ResponseRepository,
	knowledge KnowledgeService,
	gateway ModelGateway,
	auditor *audit.Auditor,
	logger *zap.Logger,
) ResponseService {
	return &responseService{
		questions: questions,
		responses: responses,
		knowledge: knowledge,
		gateway:   gateway,
		auditor:   auditor,
		logger:    logger.Named("response-service"),
	}
}

var _ ResponseService = (*responseService)(nil)

func (s *responseService) Generate(ctx context.Context, questionID uuid.UUID, opts GenerateOptions) (*models.Response, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}

	var snippets []ContextSnippet
	if opts.UseKnowledgeBase && s.knowledge != nil {
		snippets, err = s.knowledge.SelectContext(ctx, opts.OrgID, question.Keywords, opts.SnippetLimit)
		if err != nil {
			// Missing context degrades quality but should not block drafting.
			s.logger.Warn("Knowledge context selection failed, generating without context",
				zap.String("question_id", questionID.String()),
				zap.Error(err))
			snippets = nil
		}
	}

	req := llm.GenerationRequest{
		QuestionText:    question.QuestionText,
		ContextSnippets: snippetTexts(snippets),
		MaxWords:        question.MaxWords,
		Tone:            opts.Tone,
		Language:        opts.Language,
	}

	// The model call happens outside the version swap transaction so slow
	// backends never hold row locks.
	candidate, err := s.gateway.GenerateResponse(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}
	if candidate.FallbackCause != nil && s.auditor != nil {
		s.auditor.LogFallback(opts.OrgID, question.ProjectID, "response_generation", candidate.FallbackCause)
	}

	resp := &models.Response{
		QuestionID:      questionID,
		ResponseText:    candidate.ResponseText,
		ResponseType:    models.ResponseTypeGenerated,
		WordCount:       candidate.WordCount,
		CharacterCount:  candidate.CharacterCount,
		SourceDocuments: snippetTitles(snippets),
		ConfidenceScore: candidate.ConfidenceScore,
		GeneratedBy:     candidate.GeneratedBy,
		GeneratedAt:     &candidate.GeneratedAt,
		CreatedBy:       opts.Actor,
		Status:          models.ResponseStatusDraft,
	}

	if err := s.createVersionWithRetry(ctx, resp); err != nil {
		return nil, err
	}

	s.logger.Info("Generated response version",
		zap.String("question_id", questionID.String()),
		zap.String("response_id", resp.ID.String()),
		zap.Int("version", resp.Version),
		zap.String("generated_by", resp.GeneratedBy),
		zap.Float64("confidence", resp.ConfidenceScore))

	if s.auditor != nil {
		s.auditor.LogGeneration(opts.OrgID, question.ProjectID, resp.ID, opts.Actor.String(), audit.ResponseDetails{
			QuestionID:  questionID,
			Version:     resp.Version,
			GeneratedBy: resp.GeneratedBy,
			Status:      string(resp.Status),
		})
	}

	return resp, nil
}

// createVersionWithRetry retries the version swap once when a concurrent
// writer wins the race on the current-response index.
func (s *responseService) createVersionWithRetry(ctx context.Context, resp *models.Response) error {
	err := s.responses.CreateNewVersion(ctx, resp)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrVersionConflict) {
		return fmt.Errorf("create response version: %w", err)
	}

	s.logger.Warn("Concurrent version conflict, retrying once",
		zap.String("question_id", resp.QuestionID.String()))

	if err := s.responses.CreateNewVersion(ctx, resp); err != nil {
		return fmt.Errorf("create response version: %w", err)
	}
	return nil
}

func (s *responseService) Edit(ctx context.Context, responseID uuid.UUID, newText string, editor uuid.UUID) (*models.Response, error) {
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("load response: %w", err)
	}

	resp.ResponseText = newText
	resp.RecalculateCounts()
	if resp.ResponseType == models.ResponseTypeGenerated {
		resp.ResponseType = models.ResponseTypeHybrid
	}

	if err := s.responses.Update(ctx, resp); err != nil {
		return nil, fmt.Errorf("update response: %w", err)
	}

	s.logger.Info("Edited response",
		zap.String("response_id", responseID.String()),
		zap.String("response_type", string(resp.ResponseType)),
		zap.Int("word_count", resp.WordCount))

	if s.auditor != nil {
		s.auditor.LogEdit(orgIDFromContext(ctx), uuid.Nil, responseID, editor.String(), audit.ResponseDetails{
			QuestionID: resp.QuestionID,
			Version:    resp.Version,
			Status:     string(resp.Status),
		})
	}

	return resp, nil
}

func (s *responseService) SubmitForReview(ctx context.Context, responseID uuid.UUID, reviewer uuid.UUID) (*models.Response, error) {
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("load response: %w", err)
	}
	if resp.Status != models.ResponseStatusDraft {
		return nil, fmt.Errorf("response is %s, only drafts can be submitted for review: %w",
			resp.Status, apperrors.ErrConflict)
	}

	return s.transition(ctx, responseID, models.ResponseStatusInReview, reviewer)
}

func (s *responseService) Approve(ctx context.Context, responseID uuid.UUID, approver uuid.UUID) (*models.Response, error) {
	return s.transition(ctx, responseID, models.ResponseStatusApproved, approver)
}

func (s *responseService) Reject(ctx context.Context, responseID uuid.UUID, reviewer uuid.UUID) (*models.Response, error) {
	return s.transition(ctx, responseID, models.ResponseStatusRejected, reviewer)
}

func (s *responseService) transition(ctx context.Context, responseID uuid.UUID, status models.ResponseStatus, reviewer uuid.UUID) (*models.Response, error) {
	resp, err := s.responses.UpdateStatus(ctx, responseID, status, reviewer)
	if err != nil {
		return nil, fmt.Errorf("update response status: %w", err)
	}

	s.logger.Info("Response status changed",
		zap.String("response_id", responseID.String()),
		zap.String("status", string(status)),
		zap.String("reviewer", reviewer.String()))

	if s.auditor != nil {
		s.auditor.LogReview(orgIDFromContext(ctx), uuid.Nil, responseID, reviewer.String(), audit.ResponseDetails{
			QuestionID: resp.QuestionID,
			Version:    resp.Version,
			Status:     string(resp.Status),
		})
	}

	return resp, nil
}

func (s *responseService) ListVersions(ctx context.Context, questionID uuid.UUID) (*ResponseVersions, error) {
	responses, err := s.responses.ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	versions := &ResponseVersions{History: make([]*models.Response, 0, len(responses))}
	for _, resp := range responses {
		if resp.IsCurrent && versions.Current == nil {
			versions.Current = resp
			continue
		}
		versions.History = append(versions.History, resp)
	}

	return versions, nil
}

// orgIDFromContext reads the organization from the scoped connection for
// audit attribution. Zero when no scope is set.
func orgIDFromContext(ctx context.Context) uuid.UUID {
	if scope, ok := database.GetOrgScope(ctx); ok {
		return scope.OrgID
	}
	return uuid.Nil
}

func snippetTexts(snippets []ContextSnippet) []string {
	texts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		texts = append(texts, s.Text)
	}
	return texts
}

func snippetTitles(snippets []ContextSnippet) []string {
	titles := make([]string, 0, len(snippets))
	for _, s := range snippets {
		titles = append(titles, s.Title)
	}
	return titles
}
