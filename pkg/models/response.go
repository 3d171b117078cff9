package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Response Status
// ============================================================================

// ResponseStatus represents the review state of a response version.
type ResponseStatus string

const (
	ResponseStatusDraft    ResponseStatus = "draft"
	ResponseStatusInReview ResponseStatus = "in_review"
	ResponseStatusApproved ResponseStatus = "approved"
	ResponseStatusRejected ResponseStatus = "rejected"
)

// ValidResponseStatuses contains all valid response status values.
var ValidResponseStatuses = []ResponseStatus{
	ResponseStatusDraft,
	ResponseStatusInReview,
	ResponseStatusApproved,
	ResponseStatusRejected,
}

// IsValidResponseStatus checks if the given status is valid.
func IsValidResponseStatus(s ResponseStatus) bool {
	for _, v := range ValidResponseStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses that end a version's review lifecycle.
// Re-generation after a terminal status creates a new version rather than
// mutating the terminal record.
func (s ResponseStatus) IsTerminal() bool {
	return s == ResponseStatusApproved || s == ResponseStatusRejected
}

// ============================================================================
// Response Type
// ============================================================================

// ResponseType records how a response's text came to be.
type ResponseType string

const (
	ResponseTypeGenerated ResponseType = "generated"
	ResponseTypeManual    ResponseType = "manual"
	ResponseTypeHybrid    ResponseType = "hybrid"
)

// ValidResponseTypes contains all valid response type values.
var ValidResponseTypes = []ResponseType{
	ResponseTypeGenerated,
	ResponseTypeManual,
	ResponseTypeHybrid,
}

// IsValidResponseType checks if the given type is valid.
func IsValidResponseType(t ResponseType) bool {
	for _, v := range ValidResponseTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ============================================================================
// Response Model
// ============================================================================

// Response is a versioned answer to a question. Versions are monotonically
// increasing per question, and among active rows at most one response per
// question carries IsCurrent = true.
type Response struct {
	ID              uuid.UUID      `json:"id"`
	QuestionID      uuid.UUID      `json:"question_id"`
	Version         int            `json:"version"`
	ResponseText    string         `json:"response_text"`
	ResponseType    ResponseType   `json:"response_type"`
	WordCount       int            `json:"word_count"`
	CharacterCount  int            `json:"character_count"`
	SourceDocuments []string       `json:"source_documents"`
	ConfidenceScore float64        `json:"confidence_score"`
	GeneratedBy     string         `json:"generated_by,omitempty"`
	GeneratedAt     *time.Time     `json:"generated_at,omitempty"`
	CreatedBy       uuid.UUID      `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	ReviewedBy      *uuid.UUID     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	ApprovedBy      *uuid.UUID     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	Status          ResponseStatus `json:"status"`
	IsCurrent       bool           `json:"is_current"`
	IsActive        bool           `json:"is_active"`
}

// RecalculateCounts recomputes word and character counts from ResponseText.
// Word count is space-delimited; character count is raw length.
func (r *Response) RecalculateCounts() {
	if r.ResponseText == "" {
		r.WordCount = 0
		r.CharacterCount = 0
		return
	}
	r.WordCount = len(strings.Fields(r.ResponseText))
	r.CharacterCount = len(r.ResponseText)
}
