package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/simts-edu/casesim-service/internal/events"
	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/repositories"
	"github.com/simts-edu/casesim-service/internal/validator"
)

// ===== REQUEST / RESPONSE TYPES =====

type SubmitAnswerItem struct {
	QuestionIndex  int     `json:"question_index" validate:"min=0"`
	SelectedOption *int    `json:"selected_option" validate:"omitempty,min=0"`
	OpenAnswer     *string `json:"open_answer" validate:"omitempty,max=5000"`
}

type SubmitSessionRequest struct {
	CaseID          string             `json:"case_id" validate:"required"`
	Answers         []SubmitAnswerItem `json:"answers" validate:"required,min=1,dive"`
	DurationSeconds *int               `json:"duration_seconds" validate:"omitempty,min=0"`
}

type ListSessionsRequest struct {
	StudentID *uint   `form:"student_id"`
	CaseID    *string `form:"case_id"`
	Limit     int     `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset    int     `form:"offset" validate:"omitempty,min=0"`
}

type SessionListResponse struct {
	Sessions []*models.AnswerSession `json:"sessions"`
	Total    int64                   `json:"total"`
}

type FeedbackRequest struct {
	Feedback string   `json:"feedback" validate:"required,max=5000"`
	Score    *float64 `json:"score" validate:"omitempty,score_range"`
}

// SessionService records submissions and teacher feedback
type SessionService interface {
	Submit(ctx context.Context, studentID uint, req SubmitSessionRequest) (*models.AnswerSession, error)
	GetByID(ctx context.Context, sessionID uint, claims *TokenClaims) (*models.AnswerSession, error)
	List(ctx context.Context, req ListSessionsRequest, claims *TokenClaims) (*SessionListResponse, error)
	AttachFeedback(ctx context.Context, answerID uint, req FeedbackRequest) (*models.StudentAnswer, error)
}

type sessionService struct {
	sessions  repositories.SessionRepository
	cases     repositories.CaseRepository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewSessionService(sessions repositories.SessionRepository, cases repositories.CaseRepository, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) SessionService {
	return &sessionService{
		sessions:  sessions,
		cases:     cases,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// Submit validates every answer against the case's question list, marks
// closed answers against correct_index, and stores the whole session
// atomically. A rejected submission stores nothing.
func (s *sessionService) Submit(ctx context.Context, studentID uint, req SubmitSessionRequest) (*models.AnswerSession, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if len(req.Answers) == 0 {
		return nil, ErrNoAnswers
	}

	c, err := s.cases.GetByCaseID(ctx, req.CaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to load case: %w", err)
	}

	payload, err := c.ParsePayload()
	if err != nil {
		return nil, fmt.Errorf("case %s has malformed payload: %w", c.CaseID, err)
	}
	questions := payload.Questions

	seen := make(map[int]bool, len(req.Answers))
	answers := make([]models.StudentAnswer, 0, len(req.Answers))
	correctCount, openCount := 0, 0

	for _, item := range req.Answers {
		if item.QuestionIndex < 0 || item.QuestionIndex >= len(questions) {
			return nil, fmt.Errorf("%w: index %d", ErrQuestionOutOfRange, item.QuestionIndex)
		}
		if seen[item.QuestionIndex] {
			return nil, fmt.Errorf("%w: index %d", ErrDuplicateQuestion, item.QuestionIndex)
		}
		seen[item.QuestionIndex] = true

		// Exactly one of the two answer forms, and it must match the
		// question's type.
		hasOption := item.SelectedOption != nil
		hasOpen := item.OpenAnswer != nil && *item.OpenAnswer != ""
		if hasOption == hasOpen {
			return nil, fmt.Errorf("%w: index %d needs exactly one of selected_option or open_answer", ErrQuestionMismatch, item.QuestionIndex)
		}

		q := questions[item.QuestionIndex]
		answer := models.StudentAnswer{
			QuestionIndex:  item.QuestionIndex,
			SelectedOption: item.SelectedOption,
			OpenAnswer:     item.OpenAnswer,
		}

		if q.IsOpen() {
			if !hasOpen {
				return nil, fmt.Errorf("%w: question %d is open-ended", ErrQuestionMismatch, item.QuestionIndex)
			}
			openCount++
		} else {
			if !hasOption {
				return nil, fmt.Errorf("%w: question %d takes an option", ErrQuestionMismatch, item.QuestionIndex)
			}
			if *item.SelectedOption >= len(q.Options) {
				return nil, fmt.Errorf("%w: option %d out of range at question %d", ErrQuestionMismatch, *item.SelectedOption, item.QuestionIndex)
			}
			if q.CorrectIndex != nil {
				correct := *item.SelectedOption == *q.CorrectIndex
				answer.IsCorrect = &correct
				if correct {
					correctCount++
				}
			}
		}

		answers = append(answers, answer)
	}

	now := time.Now()
	session := &models.AnswerSession{
		StudentID:       studentID,
		CaseID:          req.CaseID,
		SubmittedAt:     &now,
		DurationSeconds: req.DurationSeconds,
		Answers:         answers,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	event := events.NewSessionSubmittedEvent(
		session.ID, req.CaseID, studentID,
		len(answers), correctCount, openCount,
		req.DurationSeconds, now,
	)
	if perr := s.publisher.PublishActivityEvent(ctx, event); perr != nil {
		s.logger.Warn("Failed to publish submission event", "session_id", session.ID, "error", perr)
	}

	s.logger.Info("Session submitted",
		"session_id", session.ID,
		"student_id", studentID,
		"case_id", req.CaseID,
		"answers", len(answers),
		"correct", correctCount)

	return session, nil
}

// GetByID returns a session. Students only see their own.
func (s *sessionService) GetByID(ctx context.Context, sessionID uint, claims *TokenClaims) (*models.AnswerSession, error) {
	session, err := s.sessions.GetByIDWithAnswers(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if claims.Role == models.RoleStudent && session.StudentID != claims.StudentID {
		return nil, ErrSessionAccessDenied
	}

	return session, nil
}

// List returns sessions. Students are always scoped to themselves;
// teachers see everything and may filter.
func (s *sessionService) List(ctx context.Context, req ListSessionsRequest, claims *TokenClaims) (*SessionListResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	filters := repositories.SessionFilters{
		StudentID: req.StudentID,
		CaseID:    req.CaseID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	if filters.Limit == 0 {
		filters.Limit = 100
	}
	if claims.Role == models.RoleStudent {
		id := claims.StudentID
		filters.StudentID = &id
	}

	sessions, total, err := s.sessions.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return &SessionListResponse{Sessions: sessions, Total: total}, nil
}

// AttachFeedback stores teacher feedback on one answer
func (s *sessionService) AttachFeedback(ctx context.Context, answerID uint, req FeedbackRequest) (*models.StudentAnswer, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateAnswerFeedback(ctx, answerID, req.Feedback, req.Score); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to attach feedback: %w", err)
	}

	answer, err := s.sessions.GetAnswerByID(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload answer: %w", err)
	}

	event := events.NewAnswerFeedbackEvent(answer.ID, answer.SessionID, answer.Score)
	if perr := s.publisher.PublishActivityEvent(ctx, event); perr != nil {
		s.logger.Warn("Failed to publish feedback event", "answer_id", answerID, "error", perr)
	}

	return answer, nil
}
