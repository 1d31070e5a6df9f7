package openai

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

const endpoint = "https://api.openai.com/v1/chat/completions"

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

func (e *Engine) Name() string { return "openai" }

const systemPrompt = "Eres un generador de casos clínicos educativos para la formación de " +
	"estudiantes de Trabajo Social. Respondes únicamente con un objeto JSON válido, " +
	"sin comentarios ni texto fuera del JSON."

// Generate asks the model for a structured case
func (e *Engine) Generate(ctx context.Context, params generator.CaseParams) (*generator.GenerationResult, error) {
	prompt := generator.BuildCasePrompt(params)

	result, err := e.complete(ctx, prompt, true)
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
	return e.complete(ctx, caseText, false)
}

func (e *Engine) complete(ctx context.Context, input string, jsonMode bool) (*generator.GenerationResult, error) {
	if e.APIKey == "" {
		return nil, fmt.Errorf("openai: OPENAI_API_KEY is empty")
	}
	model := e.Model
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}

	body := map[string]any{
		"model": model,
		"messages": []any{
			map[string]any{"role": "system", "content": systemPrompt},
			map[string]any{"role": "user", "content": input},
		},
		"temperature": 0.7,
	}
	if jsonMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	start := time.Now()
	resp, err := e.httpc.Do(req)
	apiTime := float64(time.Since(start).Milliseconds())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("openai: bad response envelope: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices; body=%s", truncate(raw, 1024))
	}

	text := generator.StripCodeFences(strings.TrimSpace(out.Choices[0].Message.Content))
	return &generator.GenerationResult{
		Text:        text,
		RawResponse: raw,
		APITimeMs:   apiTime,
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
