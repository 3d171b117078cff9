package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/audit"
	"github.com/tendercraft/rfp-engine/pkg/database"
	"github.com/tendercraft/rfp-engine/pkg/llm"
	"github.com/tendercraft/rfp-engine/pkg/logging"
	"github.com/tendercraft/rfp-engine/pkg/models"
	"github.com/tendercraft/rfp-engine/pkg/repositories"
)

// ModelGateway is the slice of the llm gateway the services need. Satisfied
// by *llm.Gateway; tests substitute function-field fakes.
type ModelGateway interface {
	ExtractQuestions(ctx context.Context, text, documentType, language string) (*llm.ExtractionResult, error)
	GenerateResponse(ctx context.Context, req llm.GenerationRequest) (*llm.ResponseCandidate, error)
}

var _ ModelGateway = (*llm.Gateway)(nil)

// BulkExtractItem reports the outcome of one document in a bulk run.
type BulkExtractItem struct {
	DocumentID    uuid.UUID `json:"document_id"`
	QuestionCount int       `json:"question_count"`
	Error         string    `json:"error,omitempty"`
}

// BulkExtractReport summarizes a bulk extraction run. A failed document never
// aborts the run; its error is recorded and the rest proceed.
type BulkExtractReport struct {
	Items          []BulkExtractItem `json:"items"`
	TotalQuestions int               `json:"total_questions"`
	Failed         int               `json:"failed"`
}

// ExtractionService runs the question extraction pipeline over processed
// documents and persists the results.
type ExtractionService interface {
	// ExtractFromDocument extracts and persists questions for one document.
	// Returns apperrors.ErrDocumentNotReady when the document has no usable
	// extracted text yet.
	ExtractFromDocument(ctx context.Context, orgID, projectID, documentID uuid.UUID, actor string) ([]*models.Question, error)

	// BulkExtract runs ExtractFromDocument over each document, isolating
	// failures per document.
	BulkExtract(ctx context.Context, orgID, projectID uuid.UUID, documentIDs []uuid.UUID, actor string) (*BulkExtractReport, error)
}

type extractionService struct {
	documents repositories.DocumentRepository
	questions repositories.QuestionRepository
	gateway   ModelGateway
	auditor   *audit.Auditor
	scopes    *database.OrgScopeProvider
	workers   int
	logger    *zap.Logger
}

// NewExtractionService creates a new ExtractionService. workers bounds bulk
// extraction concurrency; zero or negative means sequential. scopes may be
// nil, in which case bulk extraction runs sequentially on the caller's
// connection scope.
func NewExtractionService(
	documents repositories.DocumentRepository,
	questions repositories.QuestionRepository,
	gateway ModelGateway,
	auditor *audit.Auditor,
	scopes *database.OrgScopeProvider,
	workers int,
	logger *zap.Logger,
) ExtractionService {
	if workers <= 0 {
		workers = 1
	}
	return &extractionService{
		documents: documents,
		questions: questions,
		gateway:   gateway,
		auditor:   auditor,
		scopes:    scopes,
		workers:   workers,
		logger:    logger.Named("extraction-service"),
	}
}

var _ ExtractionService = (*extractionService)(nil)

func (s *extractionService) ExtractFromDocument(ctx context.Context, orgID, projectID, documentID uuid.UUID, actor string) ([]*models.Question, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if !doc.IsReadyForExtraction() {
		return nil, apperrors.ErrDocumentNotReady
	}

	result, err := s.gateway.ExtractQuestions(ctx, doc.ExtractedText, string(doc.DocumentType), doc.Language)
	if err != nil {
		return nil, fmt.Errorf("extract questions: %w", err)
	}
	if result.FallbackCause != nil && s.auditor != nil {
		s.auditor.LogFallback(orgID, projectID, "question_extraction", result.FallbackCause)
	}

	questions := make([]*models.Question, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		questions = append(questions, candidateToQuestion(projectID, documentID, candidate, result.ExtractedBy))
	}

	if err := s.questions.CreateBatch(ctx, questions); err != nil {
		return nil, fmt.Errorf("persist questions: %w", err)
	}

	s.logger.Info("Extracted questions from document",
		zap.String("document_id", documentID.String()),
		zap.String("extracted_by", result.ExtractedBy),
		zap.Int("question_count", len(questions)),
		zap.String("text_preview", logging.SanitizeText(doc.ExtractedText)))

	if s.auditor != nil {
		s.auditor.LogExtraction(orgID, projectID, actor, audit.ExtractionDetails{
			DocumentID:    documentID,
			QuestionCount: len(questions),
			ExtractedBy:   result.ExtractedBy,
		})
	}

	return questions, nil
}

func (s *extractionService) BulkExtract(ctx context.Context, orgID, projectID uuid.UUID, documentIDs []uuid.UUID, actor string) (*BulkExtractReport, error) {
	items := make([]BulkExtractItem, len(documentIDs))

	if s.scopes == nil {
		// No scope provider: run on the caller's connection scope, which is
		// not safe to share across goroutines.
		for i, documentID := range documentIDs {
			items[i] = s.extractOne(ctx, orgID, projectID, documentID, actor)
		}
		return s.summarize(documentIDs, items), nil
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)

	for i, documentID := range documentIDs {
		wg.Add(1)
		go func(i int, documentID uuid.UUID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// Each worker gets its own org-scoped connection.
			scopedCtx, cleanup, err := s.scopes.WithOrgScope(ctx, orgID)
			if err != nil {
				items[i] = BulkExtractItem{DocumentID: documentID, Error: err.Error()}
				return
			}
			defer cleanup()

			items[i] = s.extractOne(scopedCtx, orgID, projectID, documentID, actor)
		}(i, documentID)
	}
	wg.Wait()

	return s.summarize(documentIDs, items), nil
}

func (s *extractionService) extractOne(ctx context.Context, orgID, projectID, documentID uuid.UUID, actor string) BulkExtractItem {
	item := BulkExtractItem{DocumentID: documentID}
	questions, err := s.ExtractFromDocument(ctx, orgID, projectID, documentID, actor)
	if err != nil {
		item.Error = err.Error()
		s.logger.Warn("Bulk extraction failed for document",
			zap.String("document_id", documentID.String()),
			zap.Error(err))
		return item
	}
	item.QuestionCount = len(questions)
	return item
}

func (s *extractionService) summarize(documentIDs []uuid.UUID, items []BulkExtractItem) *BulkExtractReport {

	report := &BulkExtractReport{Items: items}
	for _, item := range items {
		if item.Error != "" {
			report.Failed++
			continue
		}
		report.TotalQuestions += item.QuestionCount
	}

	s.logger.Info("Bulk extraction finished",
		zap.Int("documents", len(documentIDs)),
		zap.Int("failed", report.Failed),
		zap.Int("total_questions", report.TotalQuestions))

	return report
}

func candidateToQuestion(projectID, documentID uuid.UUID, c llm.QuestionCandidate, extractedBy string) *models.Question {
	return &models.Question{
		ProjectID:       projectID,
		DocumentID:      documentID,
		QuestionText:    c.QuestionText,
		QuestionNumber:  c.QuestionNumber,
		Section:         c.Section,
		Category:        c.Category,
		QuestionType:    c.QuestionType,
		Required:        c.Required,
		MaxWords:        c.MaxWords,
		Context:         c.Context,
		Keywords:        c.Keywords,
		ConfidenceScore: c.ConfidenceScore,
		PositionInPage:  c.PositionInPage,
		ExtractedBy:     extractedBy,
		IsActive:        true,
	}
}
