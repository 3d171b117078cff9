package llm

import (
	"encoding/json"
	"time"

	"github.com/tendercraft/rfp-engine/pkg/jsonutil"
	"github.com/tendercraft/rfp-engine/pkg/models"
)

// Default values applied at the parse boundary when the model omits a field.
const (
	DefaultCandidateCategory   = models.DefaultQuestionCategory
	DefaultCandidateConfidence = 0.8
)

// QuestionCandidate is an unpersisted extraction result returned by the
// gateway, prior to being mapped into a stored Question. All defaults are
// applied during parsing so downstream code never branches on field presence.
type QuestionCandidate struct {
	QuestionText    string
	QuestionNumber  string
	Section         string
	Category        string
	QuestionType    models.QuestionType
	Required        bool
	MaxWords        *int
	Keywords        []string
	Context         string
	ConfidenceScore float64
	PositionInPage  *int
}

// GenerationRequest carries the inputs for drafting a response.
type GenerationRequest struct {
	QuestionText    string
	ContextSnippets []string
	MaxWords        *int
	Tone            string
	Language        string
}

// ResponseCandidate is an unpersisted generation result returned by the
// gateway, prior to being mapped into a stored Response version.
// FallbackCause holds the primary backend's error when the template fallback
// produced the draft, nil otherwise.
type ResponseCandidate struct {
	ResponseText    string
	WordCount       int
	CharacterCount  int
	ConfidenceScore float64
	GeneratedBy     string
	GeneratedAt     time.Time
	SourceDocuments []string
	FallbackCause   error `json:"-"`
}

// rawQuestionCandidate mirrors the JSON object requested from the model.
// RawMessage fields tolerate type drift in model output (numbers as strings,
// booleans as "yes"/"no", keywords as a comma-joined string).
type rawQuestionCandidate struct {
	QuestionText    json.RawMessage `json:"question_text"`
	QuestionNumber  json.RawMessage `json:"question_number"`
	Section         json.RawMessage `json:"section"`
	Category        json.RawMessage `json:"category"`
	QuestionType    json.RawMessage `json:"question_type"`
	Required        json.RawMessage `json:"required"`
	MaxWords        json.RawMessage `json:"max_words"`
	Keywords        json.RawMessage `json:"keywords"`
	Context         json.RawMessage `json:"context"`
	ConfidenceScore json.RawMessage `json:"confidence_score"`
}

// ParseQuestionCandidates parses raw model output into typed candidates.
// It locates the JSON array in the output, discards entries lacking
// question_text, and applies defaults for absent fields. Malformed JSON is a
// hard failure (MalformedOutput), never a partial result.
func ParseQuestionCandidates(output string) ([]QuestionCandidate, error) {
	jsonStr, err := ExtractJSONArray(output)
	if err != nil {
		return nil, err
	}

	var raw []rawQuestionCandidate
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, NewMalformedOutputError("response is not a JSON array of question objects", err)
	}

	candidates := make([]QuestionCandidate, 0, len(raw))
	for _, r := range raw {
		text := jsonutil.FlexibleStringValue(r.QuestionText)
		if text == "" {
			continue
		}

		candidate := QuestionCandidate{
			QuestionText:    text,
			QuestionNumber:  jsonutil.FlexibleStringValue(r.QuestionNumber),
			Section:         jsonutil.FlexibleStringValue(r.Section),
			Category:        jsonutil.FlexibleStringValue(r.Category),
			Required:        jsonutil.FlexibleBoolValue(r.Required, false),
			MaxWords:        jsonutil.FlexibleIntPointer(r.MaxWords),
			Keywords:        jsonutil.FlexibleStringSlice(r.Keywords),
			Context:         jsonutil.FlexibleStringValue(r.Context),
			ConfidenceScore: jsonutil.FlexibleFloatValue(r.ConfidenceScore, DefaultCandidateConfidence),
		}

		if candidate.Category == "" {
			candidate.Category = DefaultCandidateCategory
		}

		qType := models.QuestionType(jsonutil.FlexibleStringValue(r.QuestionType))
		if !models.IsValidQuestionType(qType) {
			qType = models.QuestionTypeOpen
		}
		candidate.QuestionType = qType

		if candidate.ConfidenceScore < 0 {
			candidate.ConfidenceScore = 0
		} else if candidate.ConfidenceScore > 1 {
			candidate.ConfidenceScore = 1
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}
