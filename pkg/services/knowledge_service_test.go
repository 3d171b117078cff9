package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/models"
)

func TestSelectContext(t *testing.T) {
	orgID := uuid.New()
	entryID := uuid.New()

	repo := &mockKnowledgeRepo{
		SelectForContextFunc: func(ctx context.Context, gotOrg uuid.UUID, limit int) ([]*models.KnowledgeEntry, error) {
			assert.Equal(t, orgID, gotOrg)
			assert.Equal(t, 2, limit)
			return []*models.KnowledgeEntry{
				{ID: entryID, Title: "Company Overview", Content: "Founded in 2010, we serve 40 markets."},
			}, nil
		},
	}

	svc := NewKnowledgeService(repo, 0, 0, zap.NewNop())

	snippets, err := svc.SelectContext(context.Background(), orgID, []string{"company"}, 2)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, entryID, snippets[0].EntryID)
	assert.Equal(t, "Company Overview", snippets[0].Title)
	assert.Equal(t, "Company Overview: Founded in 2010, we serve 40 markets.", snippets[0].Text)
}

func TestSelectContext_DefaultLimit(t *testing.T) {
	repo := &mockKnowledgeRepo{
		SelectForContextFunc: func(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.KnowledgeEntry, error) {
			assert.Equal(t, DefaultSnippetLimit, limit)
			return nil, nil
		},
	}

	svc := NewKnowledgeService(repo, 0, 0, zap.NewNop())

	snippets, err := svc.SelectContext(context.Background(), uuid.New(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestSelectContext_ConfiguredDefaultLimit(t *testing.T) {
	repo := &mockKnowledgeRepo{
		SelectForContextFunc: func(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.KnowledgeEntry, error) {
			assert.Equal(t, 5, limit)
			return nil, nil
		},
	}

	svc := NewKnowledgeService(repo, 0, 5, zap.NewNop())

	_, err := svc.SelectContext(context.Background(), uuid.New(), nil, 0)
	require.NoError(t, err)
}

func TestSelectContext_TruncatesLongContent(t *testing.T) {
	long := strings.Repeat("x", 300)

	repo := &mockKnowledgeRepo{
		SelectForContextFunc: func(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.KnowledgeEntry, error) {
			return []*models.KnowledgeEntry{{ID: uuid.New(), Title: "Spec", Content: long}}, nil
		},
	}

	svc := NewKnowledgeService(repo, 100, 0, zap.NewNop())

	snippets, err := svc.SelectContext(context.Background(), uuid.New(), nil, 1)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "Spec: "+strings.Repeat("x", 100)+"...", snippets[0].Text)
}

func TestSelectContext_RepositoryFailure(t *testing.T) {
	repo := &mockKnowledgeRepo{
		SelectForContextFunc: func(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.KnowledgeEntry, error) {
			return nil, fmt.Errorf("connection lost")
		},
	}

	svc := NewKnowledgeService(repo, 0, 0, zap.NewNop())

	_, err := svc.SelectContext(context.Background(), uuid.New(), nil, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
}
