package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DecodeObject parses model output into out. Models wrap JSON in prose or
// markdown fences often enough that a bare json.Unmarshal is not sufficient:
// the second attempt extracts the first balanced top-level object from the
// text and parses that.
func DecodeObject(content string, out interface{}) bool {
	trimmed := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return true
	}

	obj, ok := ExtractJSONObject(trimmed)
	if !ok {
		return false
	}

	return json.Unmarshal([]byte(obj), out) == nil
}

// ExtractJSONObject returns the first brace-balanced object in s. Braces
// inside string literals are skipped.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ExtractField scrapes a single string field out of prose when no parsable
// object exists at all, e.g. `"summary": "..."` embedded in an explanation.
func ExtractField(content, field string) (string, bool) {
	pattern := regexp.MustCompile(`(?i)"` + regexp.QuoteMeta(field) + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	match := pattern.FindStringSubmatch(content)
	if match == nil {
		return "", false
	}

	var value string
	if err := json.Unmarshal([]byte(`"`+match[1]+`"`), &value); err != nil {
		return match[1], true
	}
	return value, true
}
