package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/database"
	"github.com/tendercraft/rfp-engine/pkg/models"
)

// DocumentRepository provides read access to uploaded documents. Upload and
// text extraction happen upstream; the engine only consumes finished documents.
type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Document, error)
}

type documentRepository struct{}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository() DocumentRepository {
	return &documentRepository{}
}

var _ DocumentRepository = (*documentRepository)(nil)

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := `
		SELECT id, organization_id, project_id, name, document_type, language,
		       page_count, word_count, processing_status, extracted_text,
		       uploaded_at, processed_at, is_active
		FROM rfp_documents
		WHERE id = $1 AND is_active = true`

	row := scope.Conn.QueryRow(ctx, query, id)
	doc, err := scanDocumentRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (r *documentRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Document, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	if len(ids) == 0 {
		return []*models.Document{}, nil
	}

	query := `
		SELECT id, organization_id, project_id, name, document_type, language,
		       page_count, word_count, processing_status, extracted_text,
		       uploaded_at, processed_at, is_active
		FROM rfp_documents
		WHERE id = ANY($1) AND is_active = true
		ORDER BY uploaded_at`

	rows, err := scope.Conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*models.Document, 0, len(ids))
	for rows.Next() {
		d, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// ============================================================================
// Helper Functions - Scan
// ============================================================================

func scanDocumentRow(row pgx.Row) (*models.Document, error) {
	var d models.Document
	var extractedText *string

	err := row.Scan(
		&d.ID, &d.OrganizationID, &d.ProjectID, &d.Name, &d.DocumentType,
		&d.Language, &d.PageCount, &d.WordCount, &d.ProcessingStatus,
		&extractedText, &d.UploadedAt, &d.ProcessedAt, &d.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	if extractedText != nil {
		d.ExtractedText = *extractedText
	}

	return &d, nil
}
