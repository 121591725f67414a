package grader

import (
	"encoding/json"
	"strings"
)

// extractJSON finds the first JSON object embedded in free text that accept
// reports as the payload. Braces are balanced, and braces inside quoted
// strings are skipped, so trailing prose and braces in descriptions do not
// leak into the result.
//
// An unbalanced '{' is stepped over. A balanced candidate that is not the
// payload is skipped whole (never searched inside, so a nested entry is not
// mistaken for the payload). When nothing is accepted, the first balanced
// candidate that is not valid JSON is returned so the caller can report the
// parse error; "" means no usable object exists at all.
func extractJSON(s string, accept func(string) bool) string {
	invalid := ""
	offset := 0

	for offset < len(s) {
		start := strings.IndexByte(s[offset:], '{')
		if start < 0 {
			break
		}
		start += offset

		end := matchBrace(s, start)
		if end < 0 {
			offset = start + 1
			continue
		}

		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			if accept(candidate) {
				return candidate
			}
		} else if invalid == "" {
			invalid = candidate
		}
		offset = end + 1
	}
	return invalid
}

// matchBrace returns the index of the '}' closing the '{' at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
