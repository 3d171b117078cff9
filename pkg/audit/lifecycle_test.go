package audit

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedAuditor(t *testing.T) (*Auditor, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	return NewAuditor(zap.New(core)), logs
}

func fieldMap(t *testing.T, entry observer.LoggedEntry) map[string]string {
	t.Helper()
	fields := make(map[string]string)
	for _, f := range entry.Context {
		fields[f.Key] = f.String
	}
	return fields
}

func TestLogExtraction(t *testing.T) {
	auditor, logs := newObservedAuditor(t)

	orgID := uuid.New()
	projectID := uuid.New()
	documentID := uuid.New()

	auditor.LogExtraction(orgID, projectID, "extractor@acme", ExtractionDetails{
		DocumentID:    documentID,
		QuestionCount: 12,
		ExtractedBy:   "gpt-4o",
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Questions extracted", entry.Message)

	fields := fieldMap(t, entry)
	assert.Equal(t, string(EventQuestionsExtracted), fields["event_type"])
	assert.Equal(t, orgID.String(), fields["org_id"])
	assert.Equal(t, documentID.String(), fields["subject_id"])
	assert.Equal(t, "extractor@acme", fields["actor"])

	var event Event
	require.NoError(t, json.Unmarshal([]byte(fields["event_json"]), &event))
	assert.Equal(t, EventQuestionsExtracted, event.EventType)
	assert.Equal(t, "info", event.Severity)
	assert.Equal(t, projectID, event.ProjectID)
}

func TestLogGenerationAndReview(t *testing.T) {
	auditor, logs := newObservedAuditor(t)

	orgID := uuid.New()
	responseID := uuid.New()
	questionID := uuid.New()

	auditor.LogGeneration(orgID, uuid.New(), responseID, "user-1", ResponseDetails{
		QuestionID:  questionID,
		Version:     1,
		GeneratedBy: "gpt-4o",
		Status:      "draft",
	})
	auditor.LogReview(orgID, uuid.New(), responseID, "user-2", ResponseDetails{
		QuestionID: questionID,
		Version:    1,
		Status:     "approved",
	})

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "Response generated", entries[0].Message)
	assert.Equal(t, "Response reviewed", entries[1].Message)

	fields := fieldMap(t, entries[1])
	assert.Equal(t, string(EventResponseReviewed), fields["event_type"])
	assert.Equal(t, responseID.String(), fields["subject_id"])
	assert.Contains(t, fields["event_json"], `"status":"approved"`)
}

func TestLogEdit(t *testing.T) {
	auditor, logs := newObservedAuditor(t)

	auditor.LogEdit(uuid.New(), uuid.New(), uuid.New(), "editor", ResponseDetails{Version: 2})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Response edited", logs.All()[0].Message)
	assert.Contains(t, fieldMap(t, logs.All()[0])["event_json"], `"version":2`)
}

func TestLogFallback(t *testing.T) {
	auditor, logs := newObservedAuditor(t)

	auditor.LogFallback(uuid.New(), uuid.New(), "question extraction", fmt.Errorf("primary timed out"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "Fallback backend used", entry.Message)

	fields := fieldMap(t, entry)
	assert.Equal(t, "question extraction", fields["operation"])
	assert.Contains(t, fields["event_json"], `"severity":"warning"`)
	assert.Contains(t, fields["event_json"], "primary timed out")
}
