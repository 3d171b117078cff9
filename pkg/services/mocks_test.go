package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tendercraft/rfp-engine/pkg/llm"
	"github.com/tendercraft/rfp-engine/pkg/models"
	"github.com/tendercraft/rfp-engine/pkg/repositories"
)

// ============================================================================
// Repository Mocks
// ============================================================================

type mockDocumentRepo struct {
	GetByIDFunc   func(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByIDsFunc func(ctx context.Context, ids []uuid.UUID) ([]*models.Document, error)
}

var _ repositories.DocumentRepository = (*mockDocumentRepo)(nil)

func (m *mockDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockDocumentRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Document, error) {
	return m.ListByIDsFunc(ctx, ids)
}

type mockQuestionRepo struct {
	CreateBatchFunc func(ctx context.Context, questions []*models.Question) error
	GetByIDFunc     func(ctx context.Context, id uuid.UUID) (*models.Question, error)
	ListFunc        func(ctx context.Context, filter repositories.QuestionFilter) ([]*models.Question, error)
	UpdateFunc      func(ctx context.Context, id uuid.UUID, update models.QuestionUpdate, reviewer uuid.UUID) (*models.Question, error)
	DeactivateFunc  func(ctx context.Context, id uuid.UUID) error
}

var _ repositories.QuestionRepository = (*mockQuestionRepo)(nil)

func (m *mockQuestionRepo) CreateBatch(ctx context.Context, questions []*models.Question) error {
	return m.CreateBatchFunc(ctx, questions)
}

func (m *mockQuestionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockQuestionRepo) List(ctx context.Context, filter repositories.QuestionFilter) ([]*models.Question, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockQuestionRepo) Update(ctx context.Context, id uuid.UUID, update models.QuestionUpdate, reviewer uuid.UUID) (*models.Question, error) {
	return m.UpdateFunc(ctx, id, update, reviewer)
}

func (m *mockQuestionRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.DeactivateFunc(ctx, id)
}

type mockResponseRepo struct {
	CreateNewVersionFunc func(ctx context.Context, resp *models.Response) error
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.Response, error)
	GetCurrentFunc       func(ctx context.Context, questionID uuid.UUID) (*models.Response, error)
	ListByQuestionFunc   func(ctx context.Context, questionID uuid.UUID) ([]*models.Response, error)
	UpdateFunc           func(ctx context.Context, resp *models.Response) error
	UpdateStatusFunc     func(ctx context.Context, id uuid.UUID, status models.ResponseStatus, reviewer uuid.UUID) (*models.Response, error)
}

var _ repositories.ResponseRepository = (*mockResponseRepo)(nil)

func (m *mockResponseRepo) CreateNewVersion(ctx context.Context, resp *models.Response) error {
	return m.CreateNewVersionFunc(ctx, resp)
}

func (m *mockResponseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockResponseRepo) GetCurrent(ctx context.Context, questionID uuid.UUID) (*models.Response, error) {
	return m.GetCurrentFunc(ctx, questionID)
}

func (m *mockResponseRepo) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*models.Response, error) {
	return m.ListByQuestionFunc(ctx, questionID)
}

func (m *mockResponseRepo) Update(ctx context.Context, resp *models.Response) error {
	return m.UpdateFunc(ctx, resp)
}

func (m *mockResponseRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ResponseStatus, reviewer uuid.UUID) (*models.Response, error) {
	return m.UpdateStatusFunc(ctx, id, status, reviewer)
}

type mockKnowledgeRepo struct {
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error)
	SelectForContextFunc func(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.KnowledgeEntry, error)
}

var _ repositories.KnowledgeRepository = (*mockKnowledgeRepo)(nil)

func (m *mockKnowledgeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockKnowledgeRepo) SelectForContext(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.KnowledgeEntry, error) {
	return m.SelectForContextFunc(ctx, orgID, limit)
}

// ============================================================================
// Gateway Mock
// ============================================================================

type mockGateway struct {
	ExtractQuestionsFunc func(ctx context.Context, text, documentType, language string) (*llm.ExtractionResult, error)
	GenerateResponseFunc func(ctx context.Context, req llm.GenerationRequest) (*llm.ResponseCandidate, error)
}

var _ ModelGateway = (*mockGateway)(nil)

func (m *mockGateway) ExtractQuestions(ctx context.Context, text, documentType, language string) (*llm.ExtractionResult, error) {
	return m.ExtractQuestionsFunc(ctx, text, documentType, language)
}

func (m *mockGateway) GenerateResponse(ctx context.Context, req llm.GenerationRequest) (*llm.ResponseCandidate, error) {
	return m.GenerateResponseFunc(ctx, req)
}

// ============================================================================
// Knowledge Service Mock
// ============================================================================

type mockKnowledgeService struct {
	SelectContextFunc func(ctx context.Context, orgID uuid.UUID, keywords []string, limit int) ([]ContextSnippet, error)
}

var _ KnowledgeService = (*mockKnowledgeService)(nil)

func (m *mockKnowledgeService) SelectContext(ctx context.Context, orgID uuid.UUID, keywords []string, limit int) ([]ContextSnippet, error) {
	return m.SelectContextFunc(ctx, orgID, keywords, limit)
}
