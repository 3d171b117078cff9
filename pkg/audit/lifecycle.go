// Package audit provides lifecycle audit logging in structured JSON format,
// suitable for compliance review of who extracted, generated, edited, and
// approved RFP content.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType categorizes lifecycle events for filtering.
type EventType string

const (
	// EventQuestionsExtracted is logged when extraction persists questions for a document.
	EventQuestionsExtracted EventType = "questions_extracted"
	// EventResponseGenerated is logged when a response draft is created.
	EventResponseGenerated EventType = "response_generated"
	// EventResponseEdited is logged when a new response version is created by an edit.
	EventResponseEdited EventType = "response_edited"
	// EventResponseReviewed is logged on submit-for-review, approval, and rejection.
	EventResponseReviewed EventType = "response_reviewed"
	// EventFallbackUsed is logged when the primary model backend failed and the
	// local fallback produced the result. Worth alerting on when sustained.
	EventFallbackUsed EventType = "fallback_used"
)

// Event represents an auditable lifecycle event.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType EventType `json:"event_type"`
	OrgID     uuid.UUID `json:"org_id"`
	ProjectID uuid.UUID `json:"project_id,omitempty"`
	SubjectID uuid.UUID `json:"subject_id,omitempty"` // document, question, or response ID
	Actor     string    `json:"actor,omitempty"`
	Details   any       `json:"details"`
	Severity  string    `json:"severity"` // info, warning
}

// ExtractionDetails describes an extraction run.
type ExtractionDetails struct {
	DocumentID    uuid.UUID `json:"document_id"`
	QuestionCount int       `json:"question_count"`
	ExtractedBy   string    `json:"extracted_by"`
}

// ResponseDetails describes a generation or edit event.
type ResponseDetails struct {
	QuestionID  uuid.UUID `json:"question_id"`
	Version     int       `json:"version"`
	GeneratedBy string    `json:"generated_by,omitempty"`
	Status      string    `json:"status,omitempty"`
}

// Auditor logs lifecycle events.
type Auditor struct {
	logger *zap.Logger
}

// NewAuditor creates an auditor with a dedicated logger namespace for easy
// filtering downstream.
func NewAuditor(logger *zap.Logger) *Auditor {
	return &Auditor{logger: logger.Named("lifecycle_audit")}
}

// LogExtraction records that questions were extracted and persisted for a document.
func (a *Auditor) LogExtraction(orgID, projectID uuid.UUID, actor string, details ExtractionDetails) {
	a.log(Event{
		Timestamp: time.Now().UTC(),
		EventType: EventQuestionsExtracted,
		OrgID:     orgID,
		ProjectID: projectID,
		SubjectID: details.DocumentID,
		Actor:     actor,
		Details:   details,
		Severity:  "info",
	}, "Questions extracted")
}

// LogGeneration records a generated response draft.
func (a *Auditor) LogGeneration(orgID, projectID, responseID uuid.UUID, actor string, details ResponseDetails) {
	a.log(Event{
		Timestamp: time.Now().UTC(),
		EventType: EventResponseGenerated,
		OrgID:     orgID,
		ProjectID: projectID,
		SubjectID: responseID,
		Actor:     actor,
		Details:   details,
		Severity:  "info",
	}, "Response generated")
}

// LogEdit records a manual edit that produced a new response version.
func (a *Auditor) LogEdit(orgID, projectID, responseID uuid.UUID, actor string, details ResponseDetails) {
	a.log(Event{
		Timestamp: time.Now().UTC(),
		EventType: EventResponseEdited,
		OrgID:     orgID,
		ProjectID: projectID,
		SubjectID: responseID,
		Actor:     actor,
		Details:   details,
		Severity:  "info",
	}, "Response edited")
}

// LogReview records a review-state transition (submitted, approved, rejected).
func (a *Auditor) LogReview(orgID, projectID, responseID uuid.UUID, actor string, details ResponseDetails) {
	a.log(Event{
		Timestamp: time.Now().UTC(),
		EventType: EventResponseReviewed,
		OrgID:     orgID,
		ProjectID: projectID,
		SubjectID: responseID,
		Actor:     actor,
		Details:   details,
		Severity:  "info",
	}, "Response reviewed")
}

// LogFallback records that the primary model backend failed and the local
// fallback served the operation. Logged at WARN since sustained fallback use
// means degraded output quality.
func (a *Auditor) LogFallback(orgID, projectID uuid.UUID, operation string, primaryErr error) {
	event := Event{
		Timestamp: time.Now().UTC(),
		EventType: EventFallbackUsed,
		OrgID:     orgID,
		ProjectID: projectID,
		Details: map[string]string{
			"operation": operation,
			"error":     primaryErr.Error(),
		},
		Severity: "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Fallback backend used",
		zap.String("event_json", string(eventJSON)),
		zap.String("operation", operation),
		zap.String("org_id", orgID.String()),
		zap.Error(primaryErr),
	)
}

func (a *Auditor) log(event Event, message string) {
	// Serialize event to JSON for downstream ingestion
	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Info(message,
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("org_id", event.OrgID.String()),
		zap.String("subject_id", event.SubjectID.String()),
		zap.String("actor", event.Actor),
	)
}
