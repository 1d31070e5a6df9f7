package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simts-edu/casesim-service/internal/events"
	"github.com/simts-edu/casesim-service/internal/generator"
	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/validator"
)

// fakeEngine is a scriptable Engine for service tests
type fakeEngine struct {
	name     string
	result   *generator.GenerationResult
	err      error
	blockFor time.Duration
}

func (e *fakeEngine) Name() string { return e.name }

func (e *fakeEngine) Generate(ctx context.Context, params generator.CaseParams) (*generator.GenerationResult, error) {
	if e.blockFor > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.blockFor):
		}
	}
	return e.result, e.err
}

func (e *fakeEngine) Analyze(ctx context.Context, caseText string) (*generator.GenerationResult, error) {
	return e.result, e.err
}

func generatedResult() *generator.GenerationResult {
	return &generator.GenerationResult{
		Payload: &models.CasePayload{
			Title:       "Caso generado",
			Eje:         "Salud mental",
			Nivel:       "basico",
			Description: "Descripción del caso",
		},
		Text:        `{"title": "Caso generado"}`,
		RawResponse: json.RawMessage(`{"title": "Caso generado"}`),
		APITimeMs:   812.5,
	}
}

func newTestGenerationService(engine generator.Engine, cases CaseService, publisher events.EventPublisher) GenerationService {
	return NewGenerationService(engine, cases, publisher, testLogger(), validator.New(), 5*time.Second)
}

func TestGenerationService_Simulate_GenerateAndSave(t *testing.T) {
	engine := &fakeEngine{name: "openai", result: generatedResult()}
	publisher := events.NewMockEventPublisher(testLogger())

	cases := &MockCaseService{}
	cases.On("Save", mock.Anything, mock.Anything, "Salud mental", "basico", (*uint)(nil)).Return(&CaseResponse{
		CaseID: "case-ab12cd34",
		Title:  "Caso generado",
		Theme:  "Salud mental",
	}, nil)

	svc := newTestGenerationService(engine, cases, publisher)
	resp, err := svc.Simulate(context.Background(), SimulateRequest{
		Generate:   true,
		Theme:      "Salud mental",
		Difficulty: "basico",
	}, nil)
	require.NoError(t, err)

	assert.True(t, resp.OK)
	require.NotNil(t, resp.Case)
	require.NotNil(t, resp.Saved)
	assert.Equal(t, "case-ab12cd34", resp.Saved.CaseID)
	require.NotNil(t, resp.Metrics)
	assert.Equal(t, 812.5, resp.Metrics.APITimeMs)
	assert.Equal(t, "openai", resp.Metrics.Engine)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, string(events.EventCaseGenerated), string(published[0].Type))
}

func TestGenerationService_Simulate_UnparseableOutput(t *testing.T) {
	engine := &fakeEngine{name: "openai", result: &generator.GenerationResult{
		Text:      "Lo siento, no puedo generar el caso.",
		APITimeMs: 300,
	}}
	cases := &MockCaseService{}
	publisher := events.NewMockEventPublisher(testLogger())

	svc := newTestGenerationService(engine, cases, publisher)
	resp, err := svc.Simulate(context.Background(), SimulateRequest{Generate: true}, nil)
	require.NoError(t, err)

	// the raw text still comes back; nothing is stored
	assert.True(t, resp.OK)
	assert.Nil(t, resp.Case)
	assert.Nil(t, resp.Saved)
	assert.Equal(t, "Lo siento, no puedo generar el caso.", resp.Text)
	cases.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestGenerationService_Simulate_SaveFailureIsNotFatal(t *testing.T) {
	engine := &fakeEngine{name: "openai", result: generatedResult()}
	cases := &MockCaseService{}
	cases.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down"))

	svc := newTestGenerationService(engine, cases, events.NewMockEventPublisher(testLogger()))
	resp, err := svc.Simulate(context.Background(), SimulateRequest{Generate: true}, nil)
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.NotNil(t, resp.Case)
	assert.Nil(t, resp.Saved)
}

func TestGenerationService_Simulate_Timeout(t *testing.T) {
	engine := &fakeEngine{name: "openai", blockFor: time.Minute}
	cases := &MockCaseService{}

	svc := NewGenerationService(engine, cases, events.NewMockEventPublisher(testLogger()), testLogger(), validator.New(), 20*time.Millisecond)
	_, err := svc.Simulate(context.Background(), SimulateRequest{Generate: true}, nil)
	assert.ErrorIs(t, err, ErrGenerationTimeout)
}

func TestGenerationService_Simulate_EngineFailure(t *testing.T) {
	engine := &fakeEngine{name: "openai", err: errors.New("upstream 500")}
	svc := newTestGenerationService(engine, &MockCaseService{}, events.NewMockEventPublisher(testLogger()))

	_, err := svc.Simulate(context.Background(), SimulateRequest{Generate: true}, nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerationService_Simulate_AnalyzeText(t *testing.T) {
	engine := &fakeEngine{name: "gemini", result: &generator.GenerationResult{
		Text:      "Análisis del caso presentado...",
		APITimeMs: 410,
	}}
	svc := newTestGenerationService(engine, &MockCaseService{}, events.NewMockEventPublisher(testLogger()))

	resp, err := svc.Simulate(context.Background(), SimulateRequest{CaseText: "La familia García..."}, nil)
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "Análisis del caso presentado...", resp.Text)
	assert.Equal(t, "gemini", resp.Metrics.Engine)
}

func TestGenerationService_Simulate_NeitherShape(t *testing.T) {
	svc := newTestGenerationService(&fakeEngine{name: "openai"}, &MockCaseService{}, events.NewMockEventPublisher(testLogger()))
	_, err := svc.Simulate(context.Background(), SimulateRequest{}, nil)
	assert.ErrorIs(t, err, ErrInvalidSimulation)
}

func TestGenerationService_EngineName(t *testing.T) {
	svc := newTestGenerationService(nil, &MockCaseService{}, events.NewMockEventPublisher(testLogger()))
	assert.Equal(t, "", svc.EngineName())

	_, err := svc.Simulate(context.Background(), SimulateRequest{Generate: true}, nil)
	assert.ErrorIs(t, err, ErrEngineNotConfigured)
}
