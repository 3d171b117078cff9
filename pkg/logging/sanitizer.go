package logging

import (
	"regexp"
)

const (
	// MaxTextLogLength is the maximum length of document text to log
	MaxTextLogLength = 100
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match potential passwords in connection strings
	// Matches: password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Pattern to match bearer tokens (three base64 segments separated by dots)
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	// Pattern to match potential API keys, including sk- prefixed provider keys
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)
	skKeyPattern  = regexp.MustCompile(`sk-[A-Za-z0-9-_]{16,}`)

	// Pattern to match connection string credentials (user:pass@host format)
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// SanitizeConnectionString removes sensitive data from connection strings
// Use this before logging any connection string
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	// Replace password values
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)

	// Replace user:pass@host format
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeError sanitizes error messages that might contain sensitive data.
// Use this before logging errors from database operations or model backends,
// whose messages can echo connection strings and API keys.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	// Remove potential passwords
	sanitized := passwordPattern.ReplaceAllString(errStr, "${1}="+RedactedText)

	// Remove bearer tokens
	sanitized = bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)

	// Remove API keys
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = skKeyPattern.ReplaceAllString(sanitized, RedactedText)

	// Remove connection string details
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeText truncates document or response text for logging. Customer
// document contents never go to logs in full.
func SanitizeText(text string) string {
	if text == "" {
		return ""
	}

	sanitized := text
	if len(sanitized) > MaxTextLogLength {
		sanitized = sanitized[:MaxTextLogLength] + "..."
	}

	sanitized = skKeyPattern.ReplaceAllString(sanitized, RedactedText)

	return sanitized
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
