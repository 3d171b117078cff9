package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Content Type
// ============================================================================

// ContentType classifies reusable knowledge base content.
type ContentType string

const (
	ContentTypeCompanyInfo        ContentType = "company_info"
	ContentTypeServiceDescription ContentType = "service_description"
	ContentTypeCaseStudy          ContentType = "case_study"
	ContentTypeTechnicalSpec      ContentType = "technical_spec"
	ContentTypeMethodology        ContentType = "methodology"
	ContentTypeTeamBio            ContentType = "team_bio"
	ContentTypeCertification      ContentType = "certification"
	ContentTypeReference          ContentType = "reference"
)

// ValidContentTypes contains all valid content type values.
var ValidContentTypes = []ContentType{
	ContentTypeCompanyInfo,
	ContentTypeServiceDescription,
	ContentTypeCaseStudy,
	ContentTypeTechnicalSpec,
	ContentTypeMethodology,
	ContentTypeTeamBio,
	ContentTypeCertification,
	ContentTypeReference,
}

// IsValidContentType checks if the given type is valid.
func IsValidContentType(t ContentType) bool {
	for _, v := range ValidContentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ============================================================================
// Knowledge Entry Model
// ============================================================================

// KnowledgeEntry is a curated piece of organization knowledge used as context
// when generating responses. Entries are read-mostly; the engine only mutates
// them through the atomic usage-count increment performed on selection.
type KnowledgeEntry struct {
	ID               uuid.UUID   `json:"id"`
	OrganizationID   uuid.UUID   `json:"organization_id"`
	Title            string      `json:"title"`
	Content          string      `json:"content"`
	ContentType      ContentType `json:"content_type"`
	Category         string      `json:"category,omitempty"`
	Tags             []string    `json:"tags"`
	Keywords         []string    `json:"keywords"`
	SourceDocumentID *uuid.UUID  `json:"source_document_id,omitempty"`
	SourceURL        string      `json:"source_url,omitempty"`
	Language         string      `json:"language"`
	UsageCount       int         `json:"usage_count"`
	LastUsedAt       *time.Time  `json:"last_used_at,omitempty"`
	CreatedBy        uuid.UUID   `json:"created_by"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	IsActive         bool        `json:"is_active"`
}

// ContentPreview returns the entry content truncated to maxLength characters,
// with an ellipsis marker when truncated.
func (k *KnowledgeEntry) ContentPreview(maxLength int) string {
	if len(k.Content) <= maxLength {
		return k.Content
	}
	return k.Content[:maxLength] + "..."
}
