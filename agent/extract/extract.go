// Package extract recovers structured JSON from noisy model output:
// markdown fences, leading prose, truncated tails. All stage parsers in
// the pipeline go through this package.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/vanhoang/sales-agent-pipeline/agent/contract"
)

// ObjectString returns the first complete JSON object embedded in text.
// It tries a whole-string parse first, then scans forward for each '{'
// and accepts the first candidate whose balanced span decodes as an
// object. Braces inside quoted strings and backslash escapes do not
// affect balancing.
func ObjectString(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty input", contractx.ErrNoJSONObject)
	}

	if isJSONObject(trimmed) {
		return trimmed, nil
	}

	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != '{' {
			continue
		}
		candidate, ok := balancedSpan(trimmed[i:])
		if !ok {
			continue
		}
		if isJSONObject(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: scanned %d bytes", contractx.ErrNoJSONObject, len(trimmed))
}

// Object decodes the first JSON object in text into a generic map.
func Object(text string) (map[string]any, error) {
	raw, err := ObjectString(text)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrNoJSONObject, err)
	}
	return out, nil
}

// MapOrRaw never fails: when no object can be recovered (including the
// bare-array and bare-string cases) the original text is preserved under
// a "raw" key so downstream prompts still see it.
func MapOrRaw(text string) map[string]any {
	if out, err := Object(text); err == nil {
		return out
	}
	return map[string]any{"raw": text}
}

// ParseOrDefault decodes the first JSON object in text into T. On any
// extraction or decode failure it returns fallback() and false; stages use
// this one combinator instead of repeating ad hoc recovery logic.
func ParseOrDefault[T any](text string, fallback func() T) (T, bool) {
	raw, err := ObjectString(text)
	if err != nil {
		return fallback(), false
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fallback(), false
	}
	return out, true
}

// balancedSpan consumes exactly one balanced object starting at text[0],
// which must be '{'. It reports false when the object never closes.
func balancedSpan(text string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
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
				return text[:i+1], true
			}
		}
	}
	return "", false
}

func isJSONObject(raw string) bool {
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	var decoded map[string]json.RawMessage
	return json.Unmarshal([]byte(raw), &decoded) == nil
}
