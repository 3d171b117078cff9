package prompts

import (
	"fmt"
	"strings"
)

// MaxContextSnippets bounds how many knowledge snippets are embedded in a
// generation prompt.
const MaxContextSnippets = 3

// GenerationSystemMessage frames the model's role for response drafting.
const GenerationSystemMessage = "You are an assistant that drafts professional answers to RFP questions on behalf of a vendor, grounded in the supplied company context."

// BuildResponseGenerationPrompt creates the prompt for drafting a response to
// a question. At most MaxContextSnippets context snippets are included. When
// maxWords is non-nil the limit is stated in the prompt; the model is expected
// to respect it without post-hoc truncation.
func BuildResponseGenerationPrompt(questionText string, contextSnippets []string, maxWords *int, tone, language string) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Write a professional, detailed answer to the following RFP question in %s.\n\n", language))
	prompt.WriteString(fmt.Sprintf("Tone: %s\n", tone))
	if maxWords != nil {
		prompt.WriteString(fmt.Sprintf("Word limit: %d\n", *maxWords))
	}
	prompt.WriteString(fmt.Sprintf("\nQuestion: %s\n", questionText))

	if len(contextSnippets) > 0 {
		snippets := contextSnippets
		if len(snippets) > MaxContextSnippets {
			snippets = snippets[:MaxContextSnippets]
		}
		prompt.WriteString("\nContext documents:\n")
		prompt.WriteString(strings.Join(snippets, "\n"))
		prompt.WriteString("\n")
	}

	prompt.WriteString("\nThe answer must be:\n")
	prompt.WriteString("- Specific and relevant to the question\n")
	prompt.WriteString("- Professional and well structured\n")
	prompt.WriteString("- Grounded in the supplied context\n")
	prompt.WriteString("- Convincing and competent\n")
	prompt.WriteString("\nAnswer:\n")

	return prompt.String()
}
