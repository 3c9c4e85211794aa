package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const snippetLimit = 160

// DecodeJSON unmarshals the JSON object in a model reply into target. The
// reply may wrap the object in a code fence or surround it with prose.
func DecodeJSON(reply string, target any) error {
	body := strings.TrimSpace(reply)
	if body == "" {
		return errors.New("empty payload")
	}
	err := json.Unmarshal([]byte(body), target)
	if err == nil {
		return nil
	}
	obj := ExtractJSONObject(body)
	if obj == "" || obj == body {
		return fmt.Errorf("%w (payload: %s)", err, snippet(body))
	}
	if err := json.Unmarshal([]byte(obj), target); err != nil {
		return fmt.Errorf("%w (extracted: %s)", err, snippet(obj))
	}
	return nil
}

// ExtractJSONObject returns the first balanced {...} span in reply after any
// code fence is removed. Braces inside JSON strings are ignored. When no
// balanced object exists the unfenced text is returned as is.
func ExtractJSONObject(reply string) string {
	text := unfence(reply)
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return text
	}
	depth, quoted, escaped := 0, false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case quoted && c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text
}

// unfence strips a ``` fence and its optional language tag.
func unfence(reply string) string {
	text := strings.TrimSpace(reply)
	rest, ok := strings.CutPrefix(text, "```")
	if !ok {
		return text
	}
	if tag, body, found := strings.Cut(rest, "\n"); found && !strings.ContainsAny(tag, "{}:") {
		rest = body
	}
	if i := strings.LastIndex(rest, "```"); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}

// snippet collapses whitespace and truncates s for error messages.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "<empty>"
	}
	if r := []rune(s); len(r) > snippetLimit {
		return string(r[:snippetLimit]) + "..."
	}
	return s
}
