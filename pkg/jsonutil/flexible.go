package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleBoolValue converts a json.RawMessage to a bool, handling string forms
// like "true"/"yes"/"1" that LLMs sometimes produce. Returns def for null/empty
// or unrecognized values.
func FlexibleBoolValue(raw json.RawMessage, def bool) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return def
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return boolVal
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		switch strings.ToLower(strings.TrimSpace(strVal)) {
		case "true", "yes", "y", "1":
			return true
		case "false", "no", "n", "0":
			return false
		}
		return def
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal != 0
	}

	return def
}

// FlexibleFloatValue converts a json.RawMessage to a float64, accepting numbers
// encoded as JSON strings. Returns def for null/empty or unparseable values.
func FlexibleFloatValue(raw json.RawMessage, def float64) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return def
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(strVal), 64); err == nil {
			return parsed
		}
	}

	return def
}

// FlexibleIntPointer converts a json.RawMessage to an *int, accepting numbers
// encoded as JSON strings. Returns nil for null/empty or unparseable values.
func FlexibleIntPointer(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		v := int(numVal)
		return &v
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(strVal)); err == nil {
			return &parsed
		}
	}

	return nil
}

// FlexibleStringSlice converts a json.RawMessage to a []string, accepting either
// a JSON array (of any scalar types) or a single comma-separated string.
// Returns nil for null/empty.
func FlexibleStringSlice(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err == nil {
		items := make([]string, 0, len(rawItems))
		for _, item := range rawItems {
			if s := FlexibleStringValue(item); s != "" {
				items = append(items, s)
			}
		}
		return items
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		parts := strings.Split(strVal, ",")
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				items = append(items, trimmed)
			}
		}
		return items
	}

	return nil
}
