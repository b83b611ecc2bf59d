package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeStructured parses a reply that was asked for JSON. Parse failures
// do not fail the call: the error is folded into the structured payload so
// evaluation downstream simply scores it wrong.
func decodeStructured(text string) map[string]any {
	raw := extractJSONObject(text)
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{"error": fmt.Sprintf("failed to parse JSON: %v", err)}
	}
	return out
}

// extractJSONObject returns the first balanced top-level JSON object in
// text, tolerating prose or code fences around it.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return strings.TrimSpace(text)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return strings.TrimSpace(text[start:])
}
