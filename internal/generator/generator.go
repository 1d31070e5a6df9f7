package generator

import (
	"context"
	"encoding/json"

	"github.com/simts-edu/casesim-service/internal/models"
)

// CaseParams describes what kind of case to generate
type CaseParams struct {
	Theme      string            `json:"theme"`
	Difficulty string            `json:"difficulty"`
	AgeGroup   string            `json:"age_group,omitempty"`
	Context    string            `json:"context,omitempty"`
	FocusArea  string            `json:"focus_area,omitempty"`
	Competency string            `json:"competency,omitempty"`
	CaseLength string            `json:"case_length,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
}

// GenerationResult carries the parsed case (when the model returned
// valid JSON), the raw text, and the provider's full response body
type GenerationResult struct {
	Payload     *models.CasePayload `json:"case,omitempty"`
	Text        string              `json:"text"`
	RawResponse json.RawMessage     `json:"raw_response,omitempty"`
	APITimeMs   float64             `json:"api_time_ms"`
}

// Engine is an LLM provider capable of generating cases and analyzing
// free text
type Engine interface {
	Name() string
	Generate(ctx context.Context, params CaseParams) (*GenerationResult, error)
	Analyze(ctx context.Context, caseText string) (*GenerationResult, error)
}
