package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/simts-edu/casesim-service/internal/generator"
)

type Engine struct {
	APIKey string
	Model  string
	httpc  *http.Client
}

func New(key, model string) *Engine {
	return &Engine{
		APIKey: key,
		Model:  model,
		httpc:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *Engine) Name() string { return "gemini" }

// Generate asks the model for a structured case
func (e *Engine) Generate(ctx context.Context, params generator.CaseParams) (*generator.GenerationResult, error) {
	prompt := generator.BuildCasePrompt(params)

	result, err := e.generateContent(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	payload, err := generator.ParseCasePayload(result.Text)
	if err == nil {
		result.Payload = payload
	}
	return result, nil
}

// Analyze sends free case text for commentary, no JSON contract
func (e *Engine) Analyze(ctx context.Context, caseText string) (*generator.GenerationResult, error) {
	return e.generateContent(ctx, caseText, false)
}

func (e *Engine) generateContent(ctx context.Context, input string, jsonMode bool) (*generator.GenerationResult, error) {
	if e.APIKey == "" {
		return nil, fmt.Errorf("gemini: GEMINI_API_KEY is empty")
	}
	model := e.Model
	if strings.TrimSpace(model) == "" {
		model = "gemini-1.5-flash"
	}

	genConfig := map[string]any{"temperature": 0.7}
	if jsonMode {
		genConfig["response_mime_type"] = "application/json"
	}

	body := map[string]any{
		"contents": []any{
			map[string]any{
				"parts": []any{
					map[string]any{"text": input},
				},
			},
		},
		"generationConfig": genConfig,
	}
	payload, _ := json.Marshal(body)
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1/models/%s:generateContent?key=%s", model, e.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.httpc.Do(req)
	apiTime := float64(time.Since(start).Milliseconds())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("gemini: bad response envelope: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty candidates")
	}

	text := generator.StripCodeFences(strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text))
	return &generator.GenerationResult{
		Text:        text,
		RawResponse: raw,
		APITimeMs:   apiTime,
	}, nil
}
