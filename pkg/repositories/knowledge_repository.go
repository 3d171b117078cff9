package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/database"
	"github.com/tendercraft/rfp-engine/pkg/models"
)

// KnowledgeRepository provides data access for reusable knowledge entries.
type KnowledgeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error)
	// SelectForContext picks up to limit active entries for an organization
	// and atomically increments their usage counters in the same statement.
	// Entries are ordered most recently updated first.
	SelectForContext(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.KnowledgeEntry, error)
}

type knowledgeRepository struct{}

// NewKnowledgeRepository creates a new KnowledgeRepository.
func NewKnowledgeRepository() KnowledgeRepository {
	return &knowledgeRepository{}
}

var _ KnowledgeRepository = (*knowledgeRepository)(nil)

func (r *knowledgeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := knowledgeSelectColumns + `
		FROM rfp_knowledge_entries
		WHERE id = $1 AND is_active = true`

	row := scope.Conn.QueryRow(ctx, query, id)
	entry, err := scanKnowledgeEntryRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *knowledgeRepository) SelectForContext(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.KnowledgeEntry, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	if limit <= 0 {
		return []*models.KnowledgeEntry{}, nil
	}

	// Single statement so the usage counter increment cannot race a
	// concurrent selection into a lost update.
	query := `
		UPDATE rfp_knowledge_entries SET
			usage_count = usage_count + 1,
			last_used_at = NOW()
		WHERE id IN (
			SELECT id FROM rfp_knowledge_entries
			WHERE organization_id = $1 AND is_active = true
			ORDER BY updated_at DESC
			LIMIT $2
		)
		RETURNING id, organization_id, title, content, content_type, category,
		          tags, keywords, source_document_id, source_url, language,
		          usage_count, last_used_at, created_by, created_at, updated_at,
		          is_active`

	rows, err := scope.Conn.Query(ctx, query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select knowledge entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.KnowledgeEntry, 0, limit)
	for rows.Next() {
		entry, err := scanKnowledgeEntryRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge entries: %w", err)
	}

	// UPDATE ... RETURNING does not guarantee subselect order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})

	return entries, nil
}

// ============================================================================
// Helper Functions - Scan
// ============================================================================

const knowledgeSelectColumns = `
		SELECT id, organization_id, title, content, content_type, category,
		       tags, keywords, source_document_id, source_url, language,
		       usage_count, last_used_at, created_by, created_at, updated_at,
		       is_active`

func scanKnowledgeEntryRow(row pgx.Row) (*models.KnowledgeEntry, error) {
	var entry models.KnowledgeEntry
	var category, sourceURL *string

	err := row.Scan(
		&entry.ID, &entry.OrganizationID, &entry.Title, &entry.Content,
		&entry.ContentType, &category, &entry.Tags, &entry.Keywords,
		&entry.SourceDocumentID, &sourceURL, &entry.Language,
		&entry.UsageCount, &entry.LastUsedAt, &entry.CreatedBy,
		&entry.CreatedAt, &entry.UpdatedAt, &entry.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
	}

	if category != nil {
		entry.Category = *category
	}
	if sourceURL != nil {
		entry.SourceURL = *sourceURL
	}

	return &entry, nil
}
