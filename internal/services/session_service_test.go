package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/simts-edu/casesim-service/internal/events"
	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/repositories"
	"github.com/simts-edu/casesim-service/internal/validator"
)

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.AnswerSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uint) (*models.AnswerSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnswerSession), args.Error(1)
}

func (m *MockSessionRepository) GetByIDWithAnswers(ctx context.Context, id uint) (*models.AnswerSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnswerSession), args.Error(1)
}

func (m *MockSessionRepository) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.AnswerSession, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.AnswerSession), args.Get(1).(int64), args.Error(2)
}

func (m *MockSessionRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) GetAnswerByID(ctx context.Context, id uint) (*models.StudentAnswer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudentAnswer), args.Error(1)
}

func (m *MockSessionRepository) UpdateAnswerFeedback(ctx context.Context, answerID uint, feedback string, score *float64) error {
	args := m.Called(ctx, answerID, feedback, score)
	return args.Error(0)
}

// MockCaseRepository is a mock implementation of CaseRepository
type MockCaseRepository struct {
	mock.Mock
}

func (m *MockCaseRepository) Create(ctx context.Context, c *models.Case) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCaseRepository) GetByCaseID(ctx context.Context, caseID string) (*models.Case, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Case), args.Error(1)
}

func (m *MockCaseRepository) Update(ctx context.Context, c *models.Case) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCaseRepository) Delete(ctx context.Context, caseID string) error {
	args := m.Called(ctx, caseID)
	return args.Error(0)
}

func (m *MockCaseRepository) List(ctx context.Context, filters repositories.CaseFilters) ([]*models.Case, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Case), args.Get(1).(int64), args.Error(2)
}

func (m *MockCaseRepository) UpdateRating(ctx context.Context, caseID string, rating int) error {
	args := m.Called(ctx, caseID, rating)
	return args.Error(0)
}

func (m *MockCaseRepository) UpdateMeta(ctx context.Context, caseID string, tags []string, notes *string) error {
	args := m.Called(ctx, caseID, tags, notes)
	return args.Error(0)
}

func (m *MockCaseRepository) GetStatistics(ctx context.Context, recentLimit int) (*repositories.Statistics, error) {
	args := m.Called(ctx, recentLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.Statistics), args.Error(1)
}

func (m *MockCaseRepository) ExistsByCaseID(ctx context.Context, caseID string) (bool, error) {
	args := m.Called(ctx, caseID)
	return args.Bool(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// storedCase builds a case with two closed questions and one open one
func storedCase(t *testing.T, caseID string) *models.Case {
	t.Helper()
	payload := models.CasePayload{
		CaseID:      caseID,
		Title:       "Intervención familiar",
		Description: "Familia en situación de vulnerabilidad",
		Questions: []models.Question{
			{Text: "¿Primera acción?", Options: []string{"A", "B", "C"}, CorrectIndex: intPtr(1)},
			{Text: "¿Recurso adecuado?", Options: []string{"X", "Y"}, CorrectIndex: intPtr(0)},
			{Text: "Justifica tu plan de intervención."},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &models.Case{
		CaseID:  caseID,
		Title:   payload.Title,
		Payload: datatypes.JSON(raw),
		Status:  models.CaseActive,
	}
}

func newTestSessionService(sessions *MockSessionRepository, cases *MockCaseRepository) SessionService {
	return NewSessionService(sessions, cases, events.NewMockEventPublisher(testLogger()), testLogger(), validator.New())
}

func TestSessionService_Submit(t *testing.T) {
	tests := []struct {
		name     string
		answers  []SubmitAnswerItem
		wantErr  error
		wantSave bool
	}{
		{
			name: "valid mixed submission",
			answers: []SubmitAnswerItem{
				{QuestionIndex: 0, SelectedOption: intPtr(1)},
				{QuestionIndex: 1, SelectedOption: intPtr(1)},
				{QuestionIndex: 2, OpenAnswer: strPtr("Plan centrado en la familia")},
			},
			wantSave: true,
		},
		{
			name: "question index out of range",
			answers: []SubmitAnswerItem{
				{QuestionIndex: 7, SelectedOption: intPtr(0)},
			},
			wantErr: ErrQuestionOutOfRange,
		},
		{
			name: "duplicate question index",
			answers: []SubmitAnswerItem{
				{QuestionIndex: 0, SelectedOption: intPtr(1)},
				{QuestionIndex: 0, SelectedOption: intPtr(2)},
			},
			wantErr: ErrDuplicateQuestion,
		},
		{
			name: "open answer for closed question",
			answers: []SubmitAnswerItem{
				{QuestionIndex: 0, OpenAnswer: strPtr("texto libre")},
			},
			wantErr: ErrQuestionMismatch,
		},
		{
			name: "option for open question",
			answers: []SubmitAnswerItem{
				{QuestionIndex: 2, SelectedOption: intPtr(0)},
			},
			wantErr: ErrQuestionMismatch,
		},
		{
			name: "option out of range",
			answers: []SubmitAnswerItem{
				{QuestionIndex: 1, SelectedOption: intPtr(5)},
			},
			wantErr: ErrQuestionMismatch,
		},
		{
			name: "both forms on one answer",
			answers: []SubmitAnswerItem{
				{QuestionIndex: 0, SelectedOption: intPtr(1), OpenAnswer: strPtr("texto")},
			},
			wantErr: ErrQuestionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &MockSessionRepository{}
			cases := &MockCaseRepository{}
			cases.On("GetByCaseID", mock.Anything, "case-abc12345").Return(storedCase(t, "case-abc12345"), nil)
			if tt.wantSave {
				sessions.On("Create", mock.Anything, mock.MatchedBy(func(s *models.AnswerSession) bool {
					return s.CaseID == "case-abc12345" && len(s.Answers) == len(tt.answers)
				})).Return(nil)
			}

			svc := newTestSessionService(sessions, cases)
			session, err := svc.Submit(context.Background(), 42, SubmitSessionRequest{
				CaseID:  "case-abc12345",
				Answers: tt.answers,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)
				// nothing may be stored on a rejected submission
				sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, session)
			assert.Equal(t, uint(42), session.StudentID)
			sessions.AssertExpectations(t)
		})
	}
}

func TestSessionService_Submit_MarksCorrectness(t *testing.T) {
	sessions := &MockSessionRepository{}
	cases := &MockCaseRepository{}
	cases.On("GetByCaseID", mock.Anything, "case-abc12345").Return(storedCase(t, "case-abc12345"), nil)

	var stored *models.AnswerSession
	sessions.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.AnswerSession)
	}).Return(nil)

	svc := newTestSessionService(sessions, cases)
	_, err := svc.Submit(context.Background(), 1, SubmitSessionRequest{
		CaseID: "case-abc12345",
		Answers: []SubmitAnswerItem{
			{QuestionIndex: 0, SelectedOption: intPtr(1)}, // correct
			{QuestionIndex: 1, SelectedOption: intPtr(1)}, // incorrect
			{QuestionIndex: 2, OpenAnswer: strPtr("respuesta abierta")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Answers, 3)

	require.NotNil(t, stored.Answers[0].IsCorrect)
	assert.True(t, *stored.Answers[0].IsCorrect)
	require.NotNil(t, stored.Answers[1].IsCorrect)
	assert.False(t, *stored.Answers[1].IsCorrect)
	// open answers carry no auto-marking
	assert.Nil(t, stored.Answers[2].IsCorrect)
}

func TestSessionService_Submit_CaseNotFound(t *testing.T) {
	sessions := &MockSessionRepository{}
	cases := &MockCaseRepository{}
	cases.On("GetByCaseID", mock.Anything, "case-missing0").Return(nil, gorm.ErrRecordNotFound)

	svc := newTestSessionService(sessions, cases)
	_, err := svc.Submit(context.Background(), 1, SubmitSessionRequest{
		CaseID:  "case-missing0",
		Answers: []SubmitAnswerItem{{QuestionIndex: 0, SelectedOption: intPtr(0)}},
	})
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestSessionService_GetByID_StudentScoping(t *testing.T) {
	sessions := &MockSessionRepository{}
	cases := &MockCaseRepository{}
	sessions.On("GetByIDWithAnswers", mock.Anything, uint(9)).Return(&models.AnswerSession{
		ID:        9,
		StudentID: 42,
		CaseID:    "case-abc12345",
	}, nil)

	svc := newTestSessionService(sessions, cases)

	owner := &TokenClaims{Role: models.RoleStudent, StudentID: 42}
	session, err := svc.GetByID(context.Background(), 9, owner)
	require.NoError(t, err)
	assert.Equal(t, uint(9), session.ID)

	other := &TokenClaims{Role: models.RoleStudent, StudentID: 7}
	_, err = svc.GetByID(context.Background(), 9, other)
	assert.ErrorIs(t, err, ErrSessionAccessDenied)

	teacher := &TokenClaims{Role: models.RoleTeacher}
	_, err = svc.GetByID(context.Background(), 9, teacher)
	assert.NoError(t, err)
}

func TestSessionService_List_StudentAlwaysScoped(t *testing.T) {
	sessions := &MockSessionRepository{}
	cases := &MockCaseRepository{}
	sessions.On("List", mock.Anything, mock.MatchedBy(func(f repositories.SessionFilters) bool {
		return f.StudentID != nil && *f.StudentID == 42
	})).Return([]*models.AnswerSession{}, int64(0), nil)

	svc := newTestSessionService(sessions, cases)
	claims := &TokenClaims{Role: models.RoleStudent, StudentID: 42}

	// a student asking for someone else's sessions still gets their own
	otherID := uint(7)
	_, err := svc.List(context.Background(), ListSessionsRequest{StudentID: &otherID}, claims)
	require.NoError(t, err)
	sessions.AssertExpectations(t)
}

func TestSessionService_AttachFeedback(t *testing.T) {
	sessions := &MockSessionRepository{}
	cases := &MockCaseRepository{}

	score := 85.0
	sessions.On("UpdateAnswerFeedback", mock.Anything, uint(3), "Buen análisis", &score).Return(nil)
	sessions.On("GetAnswerByID", mock.Anything, uint(3)).Return(&models.StudentAnswer{
		ID:        3,
		SessionID: 9,
		Feedback:  strPtr("Buen análisis"),
		Score:     &score,
	}, nil)

	svc := newTestSessionService(sessions, cases)
	answer, err := svc.AttachFeedback(context.Background(), 3, FeedbackRequest{Feedback: "Buen análisis", Score: &score})
	require.NoError(t, err)
	assert.Equal(t, uint(3), answer.ID)

	sessions.ExpectedCalls = nil
	sessions.On("UpdateAnswerFeedback", mock.Anything, uint(99), "x", (*float64)(nil)).Return(gorm.ErrRecordNotFound)
	_, err = svc.AttachFeedback(context.Background(), 99, FeedbackRequest{Feedback: "x"})
	assert.ErrorIs(t, err, ErrAnswerNotFound)
}
