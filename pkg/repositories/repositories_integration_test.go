package repositories_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/database"
	"github.com/tendercraft/rfp-engine/pkg/models"
	"github.com/tendercraft/rfp-engine/pkg/repositories"
	"github.com/tendercraft/rfp-engine/pkg/testhelpers"
)

// scopedContext acquires an org-scoped connection for orgID and returns a
// context carrying it. The scope is released via t.Cleanup.
func scopedContext(t *testing.T, db *database.DB, orgID uuid.UUID) context.Context {
	t.Helper()

	scope, err := db.WithOrg(context.Background(), orgID)
	require.NoError(t, err)
	t.Cleanup(scope.Close)

	return database.SetOrgScope(context.Background(), scope)
}

func seedDocument(t *testing.T, ctx context.Context, orgID uuid.UUID) *models.Document {
	t.Helper()

	scope, ok := database.GetOrgScope(ctx)
	require.True(t, ok)

	doc := &models.Document{
		ID:               uuid.New(),
		OrganizationID:   orgID,
		Name:             "rfp.pdf",
		DocumentType:     models.DocumentTypeRFP,
		Language:         "en",
		ProcessingStatus: models.ProcessingStatusCompleted,
		ExtractedText:    "1. Describe your methodology.",
		IsActive:         true,
	}

	_, err := scope.Conn.Exec(ctx, `
		INSERT INTO rfp_documents (id, organization_id, name, document_type,
			language, processing_status, extracted_text, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)`,
		doc.ID, doc.OrganizationID, doc.Name, doc.DocumentType,
		doc.Language, doc.ProcessingStatus, doc.ExtractedText)
	require.NoError(t, err)

	return doc
}

func seedQuestion(t *testing.T, ctx context.Context, projectID, documentID uuid.UUID) *models.Question {
	t.Helper()

	repo := repositories.NewQuestionRepository()
	question := &models.Question{
		ProjectID:       projectID,
		DocumentID:      documentID,
		QuestionText:    "Describe your methodology.",
		QuestionNumber:  "1",
		Category:        "methodology",
		QuestionType:    models.QuestionTypeOpen,
		Required:        true,
		Keywords:        []string{"methodology"},
		ConfidenceScore: 0.9,
		ExtractedBy:     "gpt-test",
		IsActive:        true,
	}
	require.NoError(t, repo.CreateBatch(ctx, []*models.Question{question}))

	return question
}

func TestQuestionRepository_CreateAndGet(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	orgID := uuid.New()
	ctx := scopedContext(t, testDB.DB, orgID)

	doc := seedDocument(t, ctx, orgID)
	question := seedQuestion(t, ctx, uuid.New(), doc.ID)

	repo := repositories.NewQuestionRepository()

	loaded, err := repo.GetByID(ctx, question.ID)
	require.NoError(t, err)
	assert.Equal(t, "Describe your methodology.", loaded.QuestionText)
	assert.Equal(t, "1", loaded.QuestionNumber)
	assert.Equal(t, []string{"methodology"}, loaded.Keywords)
	assert.True(t, loaded.Required)
	assert.False(t, loaded.IsReviewed())

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrQuestionNotFound)
}

func TestQuestionRepository_ListFilters(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	orgID := uuid.New()
	ctx := scopedContext(t, testDB.DB, orgID)

	projectID := uuid.New()
	doc := seedDocument(t, ctx, orgID)
	otherDoc := seedDocument(t, ctx, orgID)

	seedQuestion(t, ctx, projectID, doc.ID)
	seedQuestion(t, ctx, projectID, otherDoc.ID)

	repo := repositories.NewQuestionRepository()

	all, err := repo.List(ctx, repositories.QuestionFilter{ProjectID: projectID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byDoc, err := repo.List(ctx, repositories.QuestionFilter{ProjectID: projectID, DocumentID: &doc.ID})
	require.NoError(t, err)
	require.Len(t, byDoc, 1)
	assert.Equal(t, doc.ID, byDoc[0].DocumentID)

	limited, err := repo.List(ctx, repositories.QuestionFilter{ProjectID: projectID, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestQuestionRepository_UpdateStampsReviewer(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	orgID := uuid.New()
	ctx := scopedContext(t, testDB.DB, orgID)

	doc := seedDocument(t, ctx, orgID)
	question := seedQuestion(t, ctx, uuid.New(), doc.ID)

	repo := repositories.NewQuestionRepository()
	reviewer := uuid.New()
	newText := "Describe your delivery methodology in detail."

	updated, err := repo.Update(ctx, question.ID, models.QuestionUpdate{QuestionText: &newText}, reviewer)
	require.NoError(t, err)
	assert.Equal(t, newText, updated.QuestionText)
	require.NotNil(t, updated.ReviewedBy)
	assert.Equal(t, reviewer, *updated.ReviewedBy)
	assert.NotNil(t, updated.ReviewedAt)

	// Untouched fields survive a partial update.
	assert.Equal(t, "methodology", updated.Category)
	assert.True(t, updated.Required)
}

func TestQuestionRepository_DeactivateCascades(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	orgID := uuid.New()
	ctx := scopedContext(t, testDB.DB, orgID)

	doc := seedDocument(t, ctx, orgID)
	question := seedQuestion(t, ctx, uuid.New(), doc.ID)

	questionRepo := repositories.NewQuestionRepository()
	responseRepo := repositories.NewResponseRepository()

	resp := &models.Response{
		QuestionID:   question.ID,
		ResponseText: "Our methodology is iterative.",
		ResponseType: models.ResponseTypeGenerated,
		CreatedBy:    uuid.New(),
		Status:       models.ResponseStatusDraft,
	}
	require.NoError(t, responseRepo.CreateNewVersion(ctx, resp))

	require.NoError(t, questionRepo.Deactivate(ctx, question.ID))

	_, err := questionRepo.GetByID(ctx, question.ID)
	assert.ErrorIs(t, err, apperrors.ErrQuestionNotFound)

	_, err = responseRepo.GetByID(ctx, resp.ID)
	assert.ErrorIs(t, err, apperrors.ErrResponseNotFound)
}

func TestResponseRepository_VersionSwap(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	orgID := uuid.New()
	ctx := scopedContext(t, testDB.DB, orgID)

	doc := seedDocument(t, ctx, orgID)
	question := seedQuestion(t, ctx, uuid.New(), doc.ID)

	repo := repositories.NewResponseRepository()
	creator := uuid.New()

	first := &models.Response{
		QuestionID:   question.ID,
		ResponseText: "First draft.",
		ResponseType: models.ResponseTypeGenerated,
		CreatedBy:    creator,
		Status:       models.ResponseStatusDraft,
	}
	require.NoError(t, repo.CreateNewVersion(ctx, first))
	assert.Equal(t, 1, first.Version)
	assert.True(t, first.IsCurrent)

	second := &models.Response{
		QuestionID:   question.ID,
		ResponseText: "Second draft.",
		ResponseType: models.ResponseTypeGenerated,
		CreatedBy:    creator,
		Status:       models.ResponseStatusDraft,
	}
	require.NoError(t, repo.CreateNewVersion(ctx, second))
	assert.Equal(t, 2, second.Version)

	// The old version is demoted, never mutated otherwise.
	current, err := repo.GetCurrent(ctx, question.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	demoted, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, demoted.IsCurrent)
	assert.Equal(t, "First draft.", demoted.ResponseText)

	versions, err := repo.ListByQuestion(ctx, question.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 1, versions[1].Version)
}

func TestResponseRepository_CreateNewVersion_MissingQuestion(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	orgID := uuid.New()
	ctx := scopedContext(t, testDB.DB, orgID)

	repo := repositories.NewResponseRepository()

	resp := &models.Response{
		QuestionID:   uuid.New(),
		ResponseText: "Orphan draft.",
		ResponseType: models.ResponseTypeGenerated,
		CreatedBy:    uuid.New(),
		Status:       models.ResponseStatusDraft,
	}
	err := repo.CreateNewVersion(ctx, resp)
	assert.ErrorIs(t, err, apperrors.ErrQuestionNotFound)
}

func TestResponseRepository_ConcurrentVersionSwap(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	orgID := uuid.New()
	ctx := scopedContext(t, testDB.DB, orgID)

	doc := seedDocument(t, ctx, orgID)
	question := seedQuestion(t, ctx, uuid.New(), doc.ID)

	repo := repositories.NewResponseRepository()
	creator := uuid.New()

	const writers = 8

	// Each writer gets its own org-scoped connection; they all race to
	// create the next version for the same question.
	contexts := make([]context.Context, writers)
	for i := range contexts {
		contexts[i] = scopedContext(t, testDB.DB, orgID)
	}

	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.CreateNewVersion(contexts[i], &models.Response{
				QuestionID:   question.ID,
				ResponseText: "Concurrent draft.",
				ResponseType: models.ResponseTypeGenerated,
				CreatedBy:    creator,
				Status:       models.ResponseStatusDraft,
			})
		}(i)
	}
	wg.Wait()

	// Writers serialize on the question row, so every one succeeds with a
	// distinct version.
	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	versions, err := repo.ListByQuestion(ctx, question.ID)
	require.NoError(t, err)
	require.Len(t, versions, writers)

	currentCount := 0
	seen := make(map[int]bool)
	for _, v := range versions {
		assert.False(t, seen[v.Version], "duplicate version %d", v.Version)
		seen[v.Version] = true
		if v.IsCurrent {
			currentCount++
		}
	}
	assert.Equal(t, 1, currentCount)

	current, err := repo.GetCurrent(ctx, question.ID)
	require.NoError(t, err)
	assert.Equal(t, writers, current.Version)
}

func TestResponseRepository_UpdateStatus(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	orgID := uuid.New()
	ctx := scopedContext(t, testDB.DB, orgID)

	doc := seedDocument(t, ctx, orgID)
	question := seedQuestion(t, ctx, uuid.New(), doc.ID)

	repo := repositories.NewResponseRepository()
	resp := &models.Response{
		QuestionID:   question.ID,
		ResponseText: "Draft.",
		ResponseType: models.ResponseTypeGenerated,
		CreatedBy:    uuid.New(),
		Status:       models.ResponseStatusDraft,
	}
	require.NoError(t, repo.CreateNewVersion(ctx, resp))

	reviewer := uuid.New()
	approved, err := repo.UpdateStatus(ctx, resp.ID, models.ResponseStatusApproved, reviewer)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, reviewer, *approved.ReviewedBy)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, reviewer, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = repo.UpdateStatus(ctx, uuid.New(), models.ResponseStatusApproved, reviewer)
	assert.ErrorIs(t, err, apperrors.ErrResponseNotFound)
}

func TestKnowledgeRepository_SelectForContext(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	orgID := uuid.New()
	ctx := scopedContext(t, testDB.DB, orgID)

	scope, ok := database.GetOrgScope(ctx)
	require.True(t, ok)

	creator := uuid.New()
	titles := []string{"Oldest", "Middle", "Newest"}
	for i, title := range titles {
		_, err := scope.Conn.Exec(ctx, `
			INSERT INTO rfp_knowledge_entries (organization_id, title, content,
				content_type, created_by, updated_at, is_active)
			VALUES ($1, $2, $3, 'company_info', $4, $5, true)`,
			orgID, title, "Content for "+title, creator,
			time.Now().Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	repo := repositories.NewKnowledgeRepository()

	selected, err := repo.SelectForContext(ctx, orgID, 2)
	require.NoError(t, err)
	require.Len(t, selected, 2)

	// Most recently updated first, capped at the limit.
	assert.Equal(t, "Newest", selected[0].Title)
	assert.Equal(t, "Middle", selected[1].Title)

	// Selection counts as usage.
	for _, entry := range selected {
		assert.Equal(t, 1, entry.UsageCount)
		assert.NotNil(t, entry.LastUsedAt)
	}

	// A second selection bumps the counters again.
	again, err := repo.SelectForContext(ctx, orgID, 1)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, 2, again[0].UsageCount)

	empty, err := repo.SelectForContext(ctx, orgID, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDocumentRepository_GetByID(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	orgID := uuid.New()
	ctx := scopedContext(t, testDB.DB, orgID)

	doc := seedDocument(t, ctx, orgID)

	repo := repositories.NewDocumentRepository()

	loaded, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Name, loaded.Name)
	assert.True(t, loaded.IsReadyForExtraction())

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
