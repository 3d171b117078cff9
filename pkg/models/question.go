package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Question Type
// ============================================================================

// QuestionType classifies the expected answer format of an extracted question.
type QuestionType string

const (
	QuestionTypeOpen           QuestionType = "open"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeYesNo          QuestionType = "yes_no"
	QuestionTypeNumeric        QuestionType = "numeric"
	QuestionTypeDate           QuestionType = "date"
	QuestionTypeFileUpload     QuestionType = "file_upload"
)

// ValidQuestionTypes contains all valid question type values.
var ValidQuestionTypes = []QuestionType{
	QuestionTypeOpen,
	QuestionTypeMultipleChoice,
	QuestionTypeYesNo,
	QuestionTypeNumeric,
	QuestionTypeDate,
	QuestionTypeFileUpload,
}

// IsValidQuestionType checks if the given type is valid.
func IsValidQuestionType(t QuestionType) bool {
	for _, v := range ValidQuestionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DefaultQuestionCategory is assigned when extraction produces no category.
const DefaultQuestionCategory = "general"

// ============================================================================
// Question Model
// ============================================================================

// Question represents a discrete question extracted from a procurement
// document. Questions are created once by the extraction pipeline and after
// that mutated only through human review; extraction never re-runs over an
// existing question.
type Question struct {
	ID              uuid.UUID    `json:"id"`
	ProjectID       uuid.UUID    `json:"project_id"`
	DocumentID      uuid.UUID    `json:"document_id"`
	QuestionText    string       `json:"question_text"`
	QuestionNumber  string       `json:"question_number,omitempty"`
	Section         string       `json:"section,omitempty"`
	Category        string       `json:"category,omitempty"`
	QuestionType    QuestionType `json:"question_type"`
	Required        bool         `json:"required"`
	MaxWords        *int         `json:"max_words,omitempty"`
	Context         string       `json:"context,omitempty"`
	Keywords        []string     `json:"keywords"`
	ConfidenceScore float64      `json:"confidence_score"`
	PageNumber      *int         `json:"page_number,omitempty"`
	PositionInPage  *int         `json:"position_in_page,omitempty"`
	ExtractedBy     string       `json:"extracted_by"`
	ExtractedAt     time.Time    `json:"extracted_at"`
	ReviewedBy      *uuid.UUID   `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty"`
	IsActive        bool         `json:"is_active"`
}

// IsReviewed returns true if a human has reviewed the extracted question.
func (q *Question) IsReviewed() bool {
	return q.ReviewedBy != nil
}

// QuestionUpdate carries the fields a reviewer may change on a question.
// Nil fields are left untouched.
type QuestionUpdate struct {
	QuestionText *string `json:"question_text,omitempty"`
	Category     *string `json:"category,omitempty"`
	Required     *bool   `json:"required,omitempty"`
	MaxWords     *int    `json:"max_words,omitempty"`
	Context      *string `json:"context,omitempty"`
}
