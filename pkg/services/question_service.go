package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/models"
	"github.com/tendercraft/rfp-engine/pkg/repositories"
)

// QuestionService exposes read and review operations over extracted questions.
// Questions are created only by the extraction pipeline; this service covers
// everything that happens to them afterwards.
type QuestionService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Question, error)
	List(ctx context.Context, filter repositories.QuestionFilter) ([]*models.Question, error)

	// Review applies reviewer edits and stamps the question as human-reviewed.
	Review(ctx context.Context, id uuid.UUID, update models.QuestionUpdate, reviewer uuid.UUID) (*models.Question, error)

	// Delete soft-deletes a question together with its responses.
	Delete(ctx context.Context, id uuid.UUID) error
}

type questionService struct {
	repo   repositories.QuestionRepository
	logger *zap.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(repo repositories.QuestionRepository, logger *zap.Logger) QuestionService {
	return &questionService{
		repo:   repo,
		logger: logger.Named("question-service"),
	}
}

var _ QuestionService = (*questionService)(nil)

func (s *questionService) Get(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *questionService) List(ctx context.Context, filter repositories.QuestionFilter) ([]*models.Question, error) {
	return s.repo.List(ctx, filter)
}

func (s *questionService) Review(ctx context.Context, id uuid.UUID, update models.QuestionUpdate, reviewer uuid.UUID) (*models.Question, error) {
	if update.QuestionText != nil && *update.QuestionText == "" {
		return nil, fmt.Errorf("question text cannot be cleared: %w", apperrors.ErrInvalidInput)
	}
	if update.MaxWords != nil && *update.MaxWords <= 0 {
		return nil, fmt.Errorf("max words must be positive: %w", apperrors.ErrInvalidInput)
	}

	question, err := s.repo.Update(ctx, id, update, reviewer)
	if err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}

	s.logger.Info("Question reviewed",
		zap.String("question_id", id.String()),
		zap.String("reviewer", reviewer.String()))

	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate question: %w", err)
	}

	s.logger.Info("Question deactivated", zap.String("question_id", id.String()))
	return nil
}
