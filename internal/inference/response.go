package inference

import (
	"encoding/json"
	"regexp"
	"strings"

	"tuneshelf/internal/services"
	"tuneshelf/internal/services/llm"
)

var (
	titleLine  = regexp.MustCompile(`(?im)^\s*title\s*:\s*(.+?)\s*$`)
	artistLine = regexp.MustCompile(`(?im)^\s*artist\s*:\s*(.+?)\s*$`)
)

// Parsed is the outcome of parsing a service response. Err is set whenever a
// field could not be recovered; Raw always holds the original text.
type Parsed struct {
	Title  string
	Artist string
	Raw    string
	Err    error
}

type responsePayload struct {
	Title  any `json:"title"`
	Artist any `json:"artist"`
}

// ParseResponse recovers a title and artist from free-form model output. It
// tries a bare JSON object, then a fenced or embedded object, then
// "title:"/"artist:" lines. It never fails hard: missing fields are reported
// through Parsed.Err.
func ParseResponse(text string) Parsed {
	out := Parsed{Raw: text}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		out.Err = services.Wrap(services.ErrInference, "inference", "parse response", "empty response", nil)
		return out
	}

	for _, candidate := range []string{trimmed, llm.ExtractJSONObject(trimmed)} {
		title, artist, ok := decodeObject(candidate)
		if !ok {
			continue
		}
		out.Title, out.Artist = title, artist
		if title != "" && artist != "" {
			return out
		}
		break
	}

	if m := titleLine.FindStringSubmatch(trimmed); m != nil && out.Title == "" {
		out.Title = cleanValue(m[1])
	}
	if m := artistLine.FindStringSubmatch(trimmed); m != nil && out.Artist == "" {
		out.Artist = cleanValue(m[1])
	}

	switch {
	case out.Title == "" && out.Artist == "":
		out.Err = services.Wrap(services.ErrInference, "inference", "parse response", "unparseable response", nil)
	case out.Title == "":
		out.Err = services.Wrap(services.ErrInference, "inference", "parse response", "response has no title", nil)
	case out.Artist == "":
		out.Err = services.Wrap(services.ErrInference, "inference", "parse response", "response has no artist", nil)
	}
	return out
}

func decodeObject(candidate string) (string, string, bool) {
	if !strings.HasPrefix(candidate, "{") {
		return "", "", false
	}
	var payload responsePayload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return "", "", false
	}
	return stringValue(payload.Title), stringValue(payload.Artist), true
}

func stringValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`+"`")
	return strings.TrimSpace(s)
}
