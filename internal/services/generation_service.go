package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/simts-edu/casesim-service/internal/events"
	"github.com/simts-edu/casesim-service/internal/generator"
	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/validator"
)

// ===== REQUEST / RESPONSE TYPES =====

type SimulateRequest struct {
	Generate   bool   `json:"generate"`
	Theme      string `json:"theme" validate:"omitempty,case_theme"`
	Difficulty string `json:"difficulty" validate:"omitempty,difficulty_level"`
	AgeGroup   string `json:"age_group" validate:"omitempty,max=100"`
	Context    string `json:"context" validate:"omitempty,max=200"`
	FocusArea  string `json:"focus_area" validate:"omitempty,max=200"`
	Competency string `json:"competency" validate:"omitempty,max=200"`
	CaseLength string `json:"case_length" validate:"omitempty,case_length"`

	CaseID   string            `json:"case_id"`
	CaseText string            `json:"case_text"`
	Options  map[string]string `json:"options"`
}

type SimulateMetrics struct {
	APITimeMs        float64 `json:"api_time_ms"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	Engine           string  `json:"engine"`
}

type SimulateResponse struct {
	OK          bool                `json:"ok"`
	Case        *models.CasePayload `json:"case,omitempty"`
	Saved       *CaseResponse       `json:"saved,omitempty"`
	Text        string              `json:"text,omitempty"`
	RawResponse json.RawMessage     `json:"raw_response,omitempty"`
	Metrics     *SimulateMetrics    `json:"metrics,omitempty"`
}

// GenerationService drives the LLM engine and persists what it produces
type GenerationService interface {
	Simulate(ctx context.Context, req SimulateRequest, createdBy *uint) (*SimulateResponse, error)
	EngineName() string
}

type generationService struct {
	engine    generator.Engine
	cases     CaseService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	timeout   time.Duration
}

func NewGenerationService(engine generator.Engine, cases CaseService, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator, timeout time.Duration) GenerationService {
	return &generationService{
		engine:    engine,
		cases:     cases,
		publisher: publisher,
		logger:    logger,
		validator: v,
		timeout:   timeout,
	}
}

func (s *generationService) EngineName() string {
	if s.engine == nil {
		return ""
	}
	return s.engine.Name()
}

// Simulate handles both request shapes: generate a fresh case, or run
// free case text through the engine for analysis. One of the two must
// be present.
func (s *generationService) Simulate(ctx context.Context, req SimulateRequest, createdBy *uint) (*SimulateResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	if req.Generate {
		return s.generateCase(ctx, req, createdBy)
	}
	if req.CaseText != "" {
		return s.analyzeText(ctx, req.CaseText)
	}
	return nil, ErrInvalidSimulation
}

func (s *generationService) generateCase(ctx context.Context, req SimulateRequest, createdBy *uint) (*SimulateResponse, error) {
	if s.engine == nil {
		return nil, ErrEngineNotConfigured
	}

	start := time.Now()
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := generator.CaseParams{
		Theme:      req.Theme,
		Difficulty: req.Difficulty,
		AgeGroup:   req.AgeGroup,
		Context:    req.Context,
		FocusArea:  req.FocusArea,
		Competency: req.Competency,
		CaseLength: req.CaseLength,
		Options:    req.Options,
	}

	result, err := s.engine.Generate(genCtx, params)
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			s.logger.Error("Generation timed out", "engine", s.engine.Name(), "timeout", s.timeout)
			return nil, ErrGenerationTimeout
		}
		s.logger.Error("Generation failed", "engine", s.engine.Name(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	resp := &SimulateResponse{
		OK:          true,
		Case:        result.Payload,
		Text:        result.Text,
		RawResponse: result.RawResponse,
	}

	// Persist only when the model gave us a parseable case; the raw
	// text still goes back to the caller either way.
	if result.Payload != nil {
		saved, saveErr := s.cases.Save(ctx, result.Payload, req.Theme, req.Difficulty, createdBy)
		if saveErr != nil {
			s.logger.Error("Failed to save generated case", "error", saveErr)
		} else {
			resp.Saved = saved
			s.publishGenerated(ctx, saved, result.APITimeMs)
		}
	} else {
		s.logger.Warn("Generator output had no parseable case", "engine", s.engine.Name())
	}

	resp.Metrics = &SimulateMetrics{
		APITimeMs:        result.APITimeMs,
		ProcessingTimeMs: float64(time.Since(start).Milliseconds()),
		Engine:           s.engine.Name(),
	}

	return resp, nil
}

func (s *generationService) analyzeText(ctx context.Context, caseText string) (*SimulateResponse, error) {
	if s.engine == nil {
		return nil, ErrEngineNotConfigured
	}

	start := time.Now()
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.engine.Analyze(genCtx, caseText)
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrGenerationTimeout
		}
		s.logger.Error("Analysis failed", "engine", s.engine.Name(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return &SimulateResponse{
		OK:          true,
		Text:        result.Text,
		RawResponse: result.RawResponse,
		Metrics: &SimulateMetrics{
			APITimeMs:        result.APITimeMs,
			ProcessingTimeMs: float64(time.Since(start).Milliseconds()),
			Engine:           s.engine.Name(),
		},
	}, nil
}

func (s *generationService) publishGenerated(ctx context.Context, saved *CaseResponse, apiTimeMs float64) {
	event := events.NewCaseGeneratedEvent(
		saved.CaseID,
		saved.Title,
		saved.Theme,
		saved.Difficulty,
		s.engine.Name(),
		apiTimeMs,
	)
	if err := s.publisher.PublishActivityEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish generation event", "case_id", saved.CaseID, "error", err)
	}
}
