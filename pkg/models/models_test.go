package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDocumentIsReadyForExtraction(t *testing.T) {
	tests := []struct {
		name     string
		doc      Document
		expected bool
	}{
		{
			name:     "completed with text",
			doc:      Document{ProcessingStatus: ProcessingStatusCompleted, ExtractedText: "some text"},
			expected: true,
		},
		{
			name:     "completed without text",
			doc:      Document{ProcessingStatus: ProcessingStatusCompleted},
			expected: false,
		},
		{
			name:     "still processing",
			doc:      Document{ProcessingStatus: ProcessingStatusProcessing, ExtractedText: "some text"},
			expected: false,
		},
		{
			name:     "failed",
			doc:      Document{ProcessingStatus: ProcessingStatusFailed},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.doc.IsReadyForExtraction())
		})
	}
}

func TestIsValidDocumentType(t *testing.T) {
	assert.True(t, IsValidDocumentType(DocumentTypeRFP))
	assert.True(t, IsValidDocumentType(DocumentTypeKnowledgeBase))
	assert.False(t, IsValidDocumentType(DocumentType("spreadsheet")))
	assert.False(t, IsValidDocumentType(DocumentType("")))
}

func TestIsValidQuestionType(t *testing.T) {
	for _, qt := range ValidQuestionTypes {
		assert.True(t, IsValidQuestionType(qt), "expected %s to be valid", qt)
	}
	assert.False(t, IsValidQuestionType(QuestionType("essay")))
	assert.False(t, IsValidQuestionType(QuestionType("")))
}

func TestQuestionIsReviewed(t *testing.T) {
	q := Question{}
	assert.False(t, q.IsReviewed())

	reviewer := uuid.New()
	q.ReviewedBy = &reviewer
	assert.True(t, q.IsReviewed())
}

func TestResponseStatusIsTerminal(t *testing.T) {
	assert.False(t, ResponseStatusDraft.IsTerminal())
	assert.False(t, ResponseStatusInReview.IsTerminal())
	assert.True(t, ResponseStatusApproved.IsTerminal())
	assert.True(t, ResponseStatusRejected.IsTerminal())
}

func TestIsValidResponseStatus(t *testing.T) {
	for _, s := range ValidResponseStatuses {
		assert.True(t, IsValidResponseStatus(s), "expected %s to be valid", s)
	}
	assert.False(t, IsValidResponseStatus(ResponseStatus("published")))
}

func TestIsValidResponseType(t *testing.T) {
	for _, rt := range ValidResponseTypes {
		assert.True(t, IsValidResponseType(rt), "expected %s to be valid", rt)
	}
	assert.False(t, IsValidResponseType(ResponseType("imported")))
}

func TestResponseRecalculateCounts(t *testing.T) {
	r := Response{ResponseText: "We deliver within   thirty days."}
	r.RecalculateCounts()
	assert.Equal(t, 5, r.WordCount)
	assert.Equal(t, len(r.ResponseText), r.CharacterCount)

	r.ResponseText = ""
	r.RecalculateCounts()
	assert.Equal(t, 0, r.WordCount)
	assert.Equal(t, 0, r.CharacterCount)
}

func TestKnowledgeEntryContentPreview(t *testing.T) {
	entry := KnowledgeEntry{Content: "Our company was founded in 2010."}

	assert.Equal(t, "Our company was founded in 2010.", entry.ContentPreview(100))
	assert.Equal(t, "Our compan...", entry.ContentPreview(10))
	assert.Equal(t, entry.Content, entry.ContentPreview(len(entry.Content)))
}

func TestIsValidContentType(t *testing.T) {
	for _, ct := range ValidContentTypes {
		assert.True(t, IsValidContentType(ct), "expected %s to be valid", ct)
	}
	assert.False(t, IsValidContentType(ContentType("blog_post")))
}
