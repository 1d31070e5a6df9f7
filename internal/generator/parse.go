package generator

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/simts-edu/casesim-service/internal/models"
)

// ErrNoJSON is returned when the model output contains no parseable
// JSON object.
var ErrNoJSON = errors.New("generator: no JSON object in model output")

// StripCodeFences removes a surrounding markdown code fence if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseCasePayload decodes the model's text into a case payload. It
// first tries the text as-is, then falls back to the widest brace
// window, which survives models that wrap the JSON in prose.
func ParseCasePayload(text string) (*models.CasePayload, error) {
	cleaned := StripCodeFences(text)

	var payload models.CasePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err == nil {
		return &payload, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	candidate := cleaned[start : end+1]
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, ErrNoJSON
	}
	return &payload, nil
}
