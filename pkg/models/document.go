package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Document Type
// ============================================================================

// DocumentType classifies what kind of source material a document is.
type DocumentType string

const (
	DocumentTypeRFP           DocumentType = "rfp"
	DocumentTypeKnowledgeBase DocumentType = "knowledge_base"
	DocumentTypeTemplate      DocumentType = "template"
	DocumentTypeReference     DocumentType = "reference"
)

// ValidDocumentTypes contains all valid document type values.
var ValidDocumentTypes = []DocumentType{
	DocumentTypeRFP,
	DocumentTypeKnowledgeBase,
	DocumentTypeTemplate,
	DocumentTypeReference,
}

// IsValidDocumentType checks if the given type is valid.
func IsValidDocumentType(t DocumentType) bool {
	for _, v := range ValidDocumentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ============================================================================
// Processing Status
// ============================================================================

// ProcessingStatus tracks text extraction progress for an uploaded document.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

// ============================================================================
// Document Model
// ============================================================================

// Document represents an uploaded procurement document. File storage and raw
// text extraction happen upstream; the engine only consumes the extracted text
// once processing has completed.
type Document struct {
	ID               uuid.UUID        `json:"id"`
	OrganizationID   uuid.UUID        `json:"organization_id"`
	ProjectID        *uuid.UUID       `json:"project_id,omitempty"`
	Name             string           `json:"name"`
	DocumentType     DocumentType     `json:"document_type"`
	Language         string           `json:"language"`
	PageCount        *int             `json:"page_count,omitempty"`
	WordCount        *int             `json:"word_count,omitempty"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	ExtractedText    string           `json:"extracted_text,omitempty"`
	UploadedAt       time.Time        `json:"uploaded_at"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty"`
	IsActive         bool             `json:"is_active"`
}

// IsReadyForExtraction returns true if the document has completed text
// processing and carries non-empty extracted text.
func (d *Document) IsReadyForExtraction() bool {
	return d.ProcessingStatus == ProcessingStatusCompleted && d.ExtractedText != ""
}
