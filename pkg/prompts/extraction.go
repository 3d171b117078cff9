// Package prompts builds the prompts sent to the primary model backend for
// question extraction and response generation.
package prompts

import (
	"fmt"
	"strings"
)

// DefaultExtractionMaxChars bounds how much document text is embedded in an
// extraction prompt, to respect backend input limits.
const DefaultExtractionMaxChars = 8000

// ExtractionSystemMessage frames the model's role for question extraction.
const ExtractionSystemMessage = "You are an assistant that extracts questions, requirements, and information requests from procurement documents. You respond only with valid JSON."

// BuildQuestionExtractionPrompt creates the prompt for extracting questions
// from document text. The text is truncated to maxChars characters; pass 0 to
// use DefaultExtractionMaxChars. The prompt requests a JSON array of question
// objects matching the fields parsed by llm.ParseQuestionCandidates.
func BuildQuestionExtractionPrompt(text, documentType, language string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultExtractionMaxChars
	}
	if len(text) > maxChars {
		text = text[:maxChars]
	}

	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Analyze the following %s document in %s and extract every question, requirement, and information request.\n\n", documentType, language))
	prompt.WriteString("For each question found, provide the following fields in JSON:\n")
	prompt.WriteString("- question_text: The full text of the question\n")
	prompt.WriteString("- question_number: Question number or code, if present\n")
	prompt.WriteString("- section: Document section where the question appears\n")
	prompt.WriteString("- category: Question category (technical, experience, financial, etc.)\n")
	prompt.WriteString("- question_type: One of open, multiple_choice, yes_no, numeric, date, file_upload\n")
	prompt.WriteString("- required: Whether the question is mandatory (true/false)\n")
	prompt.WriteString("- max_words: Word limit, if one is specified\n")
	prompt.WriteString("- keywords: List of relevant keywords\n")
	prompt.WriteString("- context: Additional context around the question\n")
	prompt.WriteString("- confidence_score: Extraction confidence from 0.0 to 1.0\n")
	prompt.WriteString("\nDocument:\n")
	prompt.WriteString(text)
	prompt.WriteString("\n\nReturn only a valid JSON array of the extracted questions.\n")

	return prompt.String()
}
