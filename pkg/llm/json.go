package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the start of model responses.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// codeFencePattern strips markdown code fences around JSON payloads.
var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSONArray extracts the first JSON array from model output that may
// contain thinking tags, markdown code blocks, or surrounding prose. Returns a
// MalformedOutput error when no valid array can be located.
func ExtractJSONArray(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	if m := codeFencePattern.FindStringSubmatch(cleaned); len(m) >= 2 {
		cleaned = m[1]
	}

	if jsonStr, ok := extractBalancedJSON(cleaned, '[', ']'); ok {
		if json.Valid([]byte(jsonStr)) {
			return jsonStr, nil
		}
	}

	// Last resort: check if the entire cleaned response is a valid array
	trimmed := strings.TrimSpace(cleaned)
	if strings.HasPrefix(trimmed, "[") && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", NewMalformedOutputError("no valid JSON array found in response", nil)
}

// extractBalancedJSON finds the first balanced JSON structure starting with openChar.
// It handles nested structures by counting bracket depth.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
