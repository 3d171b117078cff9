package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/database"
	"github.com/tendercraft/rfp-engine/pkg/models"
)

// uniqueViolationCode is the PostgreSQL error code raised when the partial
// unique index on current responses rejects a concurrent insert.
const uniqueViolationCode = "23505"

// ResponseRepository provides data access for versioned responses.
type ResponseRepository interface {
	// CreateNewVersion atomically demotes the question's current response and
	// inserts resp as the new current version (max existing version + 1).
	// Writers serialize on the parent question row; returns
	// apperrors.ErrQuestionNotFound when the question is absent or inactive
	// and apperrors.ErrVersionConflict when a concurrent writer still wins
	// the race, in which case callers may retry once.
	CreateNewVersion(ctx context.Context, resp *models.Response) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error)
	GetCurrent(ctx context.Context, questionID uuid.UUID) (*models.Response, error)
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*models.Response, error)
	Update(ctx context.Context, resp *models.Response) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ResponseStatus, reviewer uuid.UUID) (*models.Response, error)
}

type responseRepository struct{}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository() ResponseRepository {
	return &responseRepository{}
}

var _ ResponseRepository = (*responseRepository)(nil)

func (r *responseRepository) CreateNewVersion(ctx context.Context, resp *models.Response) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the parent question row so concurrent version creation for the
	// same question serializes here. Locking response rows cannot cover the
	// first version, when no response rows exist yet.
	var lockedID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id
		FROM rfp_questions
		WHERE id = $1 AND is_active = true
		FOR UPDATE`, resp.QuestionID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrQuestionNotFound
		}
		return fmt.Errorf("failed to lock question: %w", err)
	}

	var maxVersion int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM rfp_responses
		WHERE question_id = $1`, resp.QuestionID).Scan(&maxVersion)
	if err != nil {
		return fmt.Errorf("failed to read current version: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE rfp_responses SET is_current = false
		WHERE question_id = $1 AND is_current = true`, resp.QuestionID)
	if err != nil {
		return fmt.Errorf("failed to demote current response: %w", err)
	}

	now := time.Now()
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	resp.Version = maxVersion + 1
	resp.IsCurrent = true
	resp.IsActive = true
	resp.CreatedAt = now
	resp.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO rfp_responses (
			id, question_id, version, response_text, response_type, word_count,
			character_count, source_documents, confidence_score, generated_by,
			generated_at, created_by, created_at, updated_at, status,
			is_current, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		resp.ID, resp.QuestionID, resp.Version, resp.ResponseText,
		resp.ResponseType, resp.WordCount, resp.CharacterCount,
		resp.SourceDocuments, resp.ConfidenceScore,
		nullableString(resp.GeneratedBy), resp.GeneratedAt, resp.CreatedBy,
		resp.CreatedAt, resp.UpdatedAt, resp.Status, resp.IsCurrent,
		resp.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrVersionConflict
		}
		return fmt.Errorf("failed to insert response version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrVersionConflict
		}
		return fmt.Errorf("failed to commit response version: %w", err)
	}

	return nil
}

func (r *responseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := responseSelectColumns + `
		FROM rfp_responses
		WHERE id = $1 AND is_active = true`

	row := scope.Conn.QueryRow(ctx, query, id)
	resp, err := scanResponseRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrResponseNotFound
		}
		return nil, err
	}
	return resp, nil
}

func (r *responseRepository) GetCurrent(ctx context.Context, questionID uuid.UUID) (*models.Response, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := responseSelectColumns + `
		FROM rfp_responses
		WHERE question_id = $1 AND is_current = true AND is_active = true`

	row := scope.Conn.QueryRow(ctx, query, questionID)
	resp, err := scanResponseRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrResponseNotFound
		}
		return nil, err
	}
	return resp, nil
}

func (r *responseRepository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*models.Response, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := responseSelectColumns + `
		FROM rfp_responses
		WHERE question_id = $1 AND is_active = true
		ORDER BY version DESC`

	rows, err := scope.Conn.Query(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	responses := make([]*models.Response, 0)
	for rows.Next() {
		resp, err := scanResponseRow(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}

	return responses, nil
}

// Update persists text edits along with recomputed counts and type changes.
// Versioning fields (version, is_current) are not touched here.
func (r *responseRepository) Update(ctx context.Context, resp *models.Response) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	resp.UpdatedAt = time.Now()

	result, err := scope.Conn.Exec(ctx, `
		UPDATE rfp_responses SET
			response_text = $2,
			response_type = $3,
			word_count = $4,
			character_count = $5,
			status = $6,
			updated_at = $7
		WHERE id = $1 AND is_active = true`,
		resp.ID, resp.ResponseText, resp.ResponseType, resp.WordCount,
		resp.CharacterCount, resp.Status, resp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update response: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrResponseNotFound
	}

	return nil
}

// UpdateStatus transitions a response's review status and stamps the acting
// reviewer. Approved responses also get approved_by/approved_at.
func (r *responseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ResponseStatus, reviewer uuid.UUID) (*models.Response, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	now := time.Now()
	var approvedBy *uuid.UUID
	var approvedAt *time.Time
	if status == models.ResponseStatusApproved {
		approvedBy = &reviewer
		approvedAt = &now
	}

	query := `
		UPDATE rfp_responses SET
			status = $2,
			reviewed_by = $3,
			reviewed_at = $4,
			approved_by = COALESCE($5, approved_by),
			approved_at = COALESCE($6, approved_at),
			updated_at = $4
		WHERE id = $1 AND is_active = true
		` + responseReturningColumns

	row := scope.Conn.QueryRow(ctx, query, id, status, reviewer, now, approvedBy, approvedAt)
	resp, err := scanResponseRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrResponseNotFound
		}
		return nil, err
	}
	return resp, nil
}

// ============================================================================
// Helper Functions - Scan
// ============================================================================

const responseSelectColumns = `
		SELECT id, question_id, version, response_text, response_type,
		       word_count, character_count, source_documents, confidence_score,
		       generated_by, generated_at, created_by, created_at, updated_at,
		       reviewed_by, reviewed_at, approved_by, approved_at, status,
		       is_current, is_active`

const responseReturningColumns = `
		RETURNING id, question_id, version, response_text, response_type,
		          word_count, character_count, source_documents, confidence_score,
		          generated_by, generated_at, created_by, created_at, updated_at,
		          reviewed_by, reviewed_at, approved_by, approved_at, status,
		          is_current, is_active`

func scanResponseRow(row pgx.Row) (*models.Response, error) {
	var resp models.Response
	var generatedBy *string

	err := row.Scan(
		&resp.ID, &resp.QuestionID, &resp.Version, &resp.ResponseText,
		&resp.ResponseType, &resp.WordCount, &resp.CharacterCount,
		&resp.SourceDocuments, &resp.ConfidenceScore, &generatedBy,
		&resp.GeneratedAt, &resp.CreatedBy, &resp.CreatedAt, &resp.UpdatedAt,
		&resp.ReviewedBy, &resp.ReviewedAt, &resp.ApprovedBy, &resp.ApprovedAt,
		&resp.Status, &resp.IsCurrent, &resp.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan response: %w", err)
	}

	if generatedBy != nil {
		resp.GeneratedBy = *generatedBy
	}

	return &resp, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
