package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/database"
	"github.com/tendercraft/rfp-engine/pkg/models"
)

// QuestionFilter narrows question listings. Zero values mean "no constraint".
type QuestionFilter struct {
	ProjectID    uuid.UUID
	DocumentID   *uuid.UUID
	Category     string
	QuestionType models.QuestionType
	Limit        int
	Offset       int
}

// QuestionRepository provides data access for extracted questions.
type QuestionRepository interface {
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error)
	List(ctx context.Context, filter QuestionFilter) ([]*models.Question, error)
	Update(ctx context.Context, id uuid.UUID, update models.QuestionUpdate, reviewer uuid.UUID) (*models.Question, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type questionRepository struct{}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository() QuestionRepository {
	return &questionRepository{}
}

var _ QuestionRepository = (*questionRepository)(nil)

// CreateBatch inserts all questions in a single transaction so a failed
// extraction never leaves a document half-persisted.
func (r *questionRepository) CreateBatch(ctx context.Context, questions []*models.Question) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	if len(questions) == 0 {
		return nil
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO rfp_questions (
			id, project_id, document_id, question_text, question_number, section,
			category, question_type, required, max_words, context, keywords,
			confidence_score, page_number, position_in_page, extracted_by,
			extracted_at, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	now := time.Now()
	for _, q := range questions {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		if q.ExtractedAt.IsZero() {
			q.ExtractedAt = now
		}
		q.IsActive = true

		_, err := tx.Exec(ctx, query,
			q.ID, q.ProjectID, q.DocumentID, q.QuestionText,
			nullableString(q.QuestionNumber), nullableString(q.Section),
			nullableString(q.Category), q.QuestionType, q.Required, q.MaxWords,
			nullableString(q.Context), q.Keywords, q.ConfidenceScore,
			q.PageNumber, q.PositionInPage, q.ExtractedBy, q.ExtractedAt,
			q.IsActive,
		)
		if err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit question batch: %w", err)
	}

	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := questionSelectColumns + `
		FROM rfp_questions
		WHERE id = $1 AND is_active = true`

	row := scope.Conn.QueryRow(ctx, query, id)
	q, err := scanQuestionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]*models.Question, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := questionSelectColumns + `
		FROM rfp_questions
		WHERE is_active = true`
	args := []any{}

	if filter.ProjectID != uuid.Nil {
		args = append(args, filter.ProjectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if filter.DocumentID != nil {
		args = append(args, *filter.DocumentID)
		query += fmt.Sprintf(" AND document_id = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.QuestionType != "" {
		args = append(args, filter.QuestionType)
		query += fmt.Sprintf(" AND question_type = $%d", len(args))
	}

	query += " ORDER BY extracted_at, question_number"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := make([]*models.Question, 0)
	for rows.Next() {
		q, err := scanQuestionRow(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, nil
}

// Update applies reviewer edits to a question and stamps reviewed_by/reviewed_at.
// Nil fields in the update are left untouched.
func (r *questionRepository) Update(ctx context.Context, id uuid.UUID, update models.QuestionUpdate, reviewer uuid.UUID) (*models.Question, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := `
		UPDATE rfp_questions SET
			question_text = COALESCE($2, question_text),
			category = COALESCE($3, category),
			required = COALESCE($4, required),
			max_words = COALESCE($5, max_words),
			context = COALESCE($6, context),
			reviewed_by = $7,
			reviewed_at = $8
		WHERE id = $1 AND is_active = true
		` + questionReturningColumns

	row := scope.Conn.QueryRow(ctx, query, id,
		update.QuestionText, update.Category, update.Required,
		update.MaxWords, update.Context, reviewer, time.Now(),
	)
	q, err := scanQuestionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// Deactivate soft-deletes a question and all of its responses.
func (r *questionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx,
		`UPDATE rfp_questions SET is_active = false WHERE id = $1 AND is_active = true`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate question: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrQuestionNotFound
	}

	_, err = tx.Exec(ctx,
		`UPDATE rfp_responses SET is_active = false, is_current = false WHERE question_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate responses: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit deactivation: %w", err)
	}

	return nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

const questionSelectColumns = `
		SELECT id, project_id, document_id, question_text, question_number,
		       section, category, question_type, required, max_words, context,
		       keywords, confidence_score, page_number, position_in_page,
		       extracted_by, extracted_at, reviewed_by, reviewed_at, is_active`

const questionReturningColumns = `
		RETURNING id, project_id, document_id, question_text, question_number,
		          section, category, question_type, required, max_words, context,
		          keywords, confidence_score, page_number, position_in_page,
		          extracted_by, extracted_at, reviewed_by, reviewed_at, is_active`

func scanQuestionRow(row pgx.Row) (*models.Question, error) {
	var q models.Question
	var questionNumber, section, category, qContext *string

	err := row.Scan(
		&q.ID, &q.ProjectID, &q.DocumentID, &q.QuestionText, &questionNumber,
		&section, &category, &q.QuestionType, &q.Required, &q.MaxWords,
		&qContext, &q.Keywords, &q.ConfidenceScore, &q.PageNumber,
		&q.PositionInPage, &q.ExtractedBy, &q.ExtractedAt, &q.ReviewedBy,
		&q.ReviewedAt, &q.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan question: %w", err)
	}

	if questionNumber != nil {
		q.QuestionNumber = *questionNumber
	}
	if section != nil {
		q.Section = *section
	}
	if category != nil {
		q.Category = *category
	}
	if qContext != nil {
		q.Context = *qContext
	}

	return &q, nil
}
