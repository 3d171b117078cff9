// assess-extraction compares question extraction backends over a document
// text file. It runs the heuristic fallback detector and, when an OpenAI
// endpoint is configured, the primary model backend, then prints both result
// sets side by side as JSON for manual review.
//
// Useful when tuning fallback marker sets for localized documents, or when
// evaluating a new model before pointing production config at it.
//
// Usage: go run ./scripts/assess-extraction <document.txt>
//
// Primary backend (optional): OPENAI_API_KEY, AI_ENDPOINT, AI_MODEL
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/llm"
)

// BackendReport holds one backend's extraction output.
type BackendReport struct {
	Backend    string                  `json:"backend"`
	Questions  []llm.QuestionCandidate `json:"questions"`
	Count      int                     `json:"count"`
	DurationMS int64                   `json:"duration_ms"`
	Error      string                  `json:"error,omitempty"`
}

// AssessmentResult is the full comparison output.
type AssessmentResult struct {
	Document  string         `json:"document"`
	TextChars int            `json:"text_chars"`
	Heuristic BackendReport  `json:"heuristic"`
	Primary   *BackendReport `json:"primary,omitempty"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: assess-extraction <document.txt>")
		os.Exit(1)
	}

	text, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read document: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	result := AssessmentResult{
		Document:  os.Args[1],
		TextChars: len(text),
	}

	result.Heuristic = runHeuristic(string(text))

	if os.Getenv("OPENAI_API_KEY") != "" {
		primary := runPrimary(string(text), logger)
		result.Primary = &primary
	} else {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY not set, skipping primary backend")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func runHeuristic(text string) BackendReport {
	report := BackendReport{Backend: llm.HeuristicProvenance}

	start := time.Now()
	candidates, err := llm.NewHeuristicBackend().ExtractQuestions(text)
	report.DurationMS = time.Since(start).Milliseconds()

	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Questions = candidates
	report.Count = len(candidates)
	return report
}

func runPrimary(text string, logger *zap.Logger) BackendReport {
	endpoint := os.Getenv("AI_ENDPOINT")
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}
	model := os.Getenv("AI_MODEL")
	if model == "" {
		model = "gpt-4o"
	}

	report := BackendReport{Backend: model}

	client, err := llm.NewOpenAIClient(&llm.OpenAIConfig{
		Endpoint: endpoint,
		Model:    model,
		APIKey:   os.Getenv("OPENAI_API_KEY"),
	}, logger)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	gateway := llm.NewGateway(client, llm.NewHeuristicBackend(), nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	extraction, err := gateway.ExtractQuestions(ctx, text, "rfp", "en")
	report.DurationMS = time.Since(start).Milliseconds()

	if err != nil {
		report.Error = err.Error()
		return report
	}
	// ExtractedBy exposes whether the gateway fell back mid-run.
	report.Backend = extraction.ExtractedBy
	report.Questions = extraction.Candidates
	report.Count = len(extraction.Candidates)
	return report
}
