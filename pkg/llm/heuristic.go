package llm

import (
	"fmt"
	"strings"
	"time"
)

// Fixed confidence scores per backend. Primary results always score higher
// than fallback results so reviewers can tell them apart.
const (
	FallbackExtractionConfidence = 0.7
	FallbackGenerationConfidence = 0.6

	// HeuristicProvenance labels questions extracted by the local detector.
	HeuristicProvenance = "heuristic-fallback"
	// TemplateProvenance labels responses drafted by the local template generator.
	TemplateProvenance = "template-fallback"

	// contextRadius is how many lines around a detected question are joined
	// into its context.
	contextRadius = 2

	// maxKeywords bounds how many tokens ExtractKeywords returns.
	maxKeywords = 5

	// minKeywordLength drops short tokens that carry little signal.
	minKeywordLength = 4
)

// defaultQuestionMarkers are the interrogative and imperative markers the
// detector looks for. Localized marker sets are supplied via configuration,
// not code branches.
var defaultQuestionMarkers = []string{
	"?", "describe", "explain", "how", "which", "what", "when", "where",
	"why", "how many", "present", "detail", "inform", "provide", "list",
}

// defaultStopwords are tokens excluded from keyword extraction.
var defaultStopwords = []string{
	"the", "and", "for", "that", "this", "with", "your", "from", "have",
	"will", "would", "should", "must", "shall", "please", "their", "been",
}

// HeuristicBackend is the deterministic fallback extraction and generation
// strategy. All methods are pure functions of their inputs plus the
// configured marker and stopword sets; no I/O is performed.
type HeuristicBackend struct {
	markers   []string
	stopwords map[string]struct{}
}

// NewHeuristicBackend creates a fallback backend with the default English
// marker and stopword sets.
func NewHeuristicBackend() *HeuristicBackend {
	return NewHeuristicBackendWithMarkers(defaultQuestionMarkers, defaultStopwords)
}

// NewHeuristicBackendWithMarkers creates a fallback backend with custom
// marker and stopword sets, for localized deployments. An empty markers or
// stopwords slice keeps the corresponding built-in English set, so an unset
// configuration override never produces a detector that matches nothing.
func NewHeuristicBackendWithMarkers(markers, stopwords []string) *HeuristicBackend {
	if len(markers) == 0 {
		markers = defaultQuestionMarkers
	}
	if len(stopwords) == 0 {
		stopwords = defaultStopwords
	}
	stopSet := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stopSet[strings.ToLower(w)] = struct{}{}
	}
	return &HeuristicBackend{
		markers:   markers,
		stopwords: stopSet,
	}
}

// LooksLikeQuestion reports whether a line of text reads like a question or an
// information request. The match is case-insensitive substring containment of
// a question mark or any configured marker.
func (h *HeuristicBackend) LooksLikeQuestion(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range h.markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ExtractKeywords tokenizes on whitespace and returns at most 5 lowercased
// tokens in original order, discarding tokens shorter than 4 characters and
// stopwords. No frequency ranking is performed.
func (h *HeuristicBackend) ExtractKeywords(line string) []string {
	words := strings.Fields(strings.ToLower(line))
	keywords := make([]string, 0, maxKeywords)
	for _, word := range words {
		if len(word) < minKeywordLength {
			continue
		}
		if _, stop := h.stopwords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// SurroundingContext joins the trimmed non-empty lines within radius of index,
// clamped to the slice bounds, space-separated.
func (h *HeuristicBackend) SurroundingContext(lines []string, index, radius int) string {
	start := index - radius
	if start < 0 {
		start = 0
	}
	end := index + radius + 1
	if end > len(lines) {
		end = len(lines)
	}

	parts := make([]string, 0, end-start)
	for _, line := range lines[start:end] {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// ExtractQuestions implements FallbackBackend by scanning each line of the
// document text for question-like signals.
func (h *HeuristicBackend) ExtractQuestions(text string) ([]QuestionCandidate, error) {
	lines := strings.Split(text, "\n")
	candidates := make([]QuestionCandidate, 0)

	for i, rawLine := range lines {
		line := strings.TrimSpace(rawLine)
		if line == "" || !h.LooksLikeQuestion(line) {
			continue
		}

		position := i
		candidates = append(candidates, QuestionCandidate{
			QuestionText:    line,
			QuestionNumber:  fmt.Sprintf("Q%d", len(candidates)+1),
			Section:         "Auto-detected section",
			Category:        DefaultCandidateCategory,
			QuestionType:    "open",
			Required:        false,
			Keywords:        h.ExtractKeywords(line),
			Context:         h.SurroundingContext(lines, i, contextRadius),
			ConfidenceScore: FallbackExtractionConfidence,
			PositionInPage:  &position,
		})
	}

	return candidates, nil
}

// GenerateResponse implements FallbackBackend with a deterministic template.
// When the request carries a word limit, the output is truncated to exactly
// that many words with an ellipsis marker appended.
func (h *HeuristicBackend) GenerateResponse(req GenerationRequest) (*ResponseCandidate, error) {
	text := fmt.Sprintf(`This is an automatically drafted answer for the question: %q

Our organization has extensive experience and the technical capability to meet the specified requirements. We maintain a qualified team and well-established processes that ensure delivery of high-quality solutions.

Specific details about our approach and methodology can be provided upon request.`, req.QuestionText)

	if req.MaxWords != nil {
		words := strings.Fields(text)
		if len(words) > *req.MaxWords {
			text = strings.Join(words[:*req.MaxWords], " ") + "..."
		}
	}

	text = strings.TrimSpace(text)

	return &ResponseCandidate{
		ResponseText:    text,
		WordCount:       len(strings.Fields(text)),
		CharacterCount:  len(text),
		ConfidenceScore: FallbackGenerationConfidence,
		GeneratedBy:     TemplateProvenance,
		GeneratedAt:     time.Now().UTC(),
		SourceDocuments: req.ContextSnippets,
	}, nil
}
