package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of activity events this service emits
type EventType string

const (
	// Case lifecycle events
	EventCaseGenerated EventType = "case.generated"
	EventCaseDeleted   EventType = "case.deleted"
	EventCaseRated     EventType = "case.rated"

	// Student activity events
	EventSessionSubmitted EventType = "session.submitted"
	EventAnswerFeedback   EventType = "answer.feedback"
)

// ActivityEvent is the envelope every published event shares
type ActivityEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type CaseGeneratedEvent struct {
	CaseID     string  `json:"case_id"`
	Title      string  `json:"title"`
	Theme      string  `json:"theme"`
	Difficulty string  `json:"difficulty"`
	Engine     string  `json:"engine"`
	APITimeMs  float64 `json:"api_time_ms"`
}

type CaseDeletedEvent struct {
	CaseID    string    `json:"case_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type CaseRatedEvent struct {
	CaseID string `json:"case_id"`
	Rating int    `json:"rating"`
}

type SessionSubmittedEvent struct {
	SessionID       uint      `json:"session_id"`
	CaseID          string    `json:"case_id"`
	StudentID       uint      `json:"student_id"`
	AnswerCount     int       `json:"answer_count"`
	CorrectCount    int       `json:"correct_count"`
	OpenCount       int       `json:"open_count"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

type AnswerFeedbackEvent struct {
	AnswerID  uint     `json:"answer_id"`
	SessionID uint     `json:"session_id"`
	Score     *float64 `json:"score,omitempty"`
}

// Event factory functions

func NewCaseGeneratedEvent(caseID, title, theme, difficulty, engine string, apiTimeMs float64) *ActivityEvent {
	return newEvent(EventCaseGenerated, CaseGeneratedEvent{
		CaseID:     caseID,
		Title:      title,
		Theme:      theme,
		Difficulty: difficulty,
		Engine:     engine,
		APITimeMs:  apiTimeMs,
	})
}

func NewCaseDeletedEvent(caseID string) *ActivityEvent {
	return newEvent(EventCaseDeleted, CaseDeletedEvent{
		CaseID:    caseID,
		DeletedAt: time.Now(),
	})
}

func NewCaseRatedEvent(caseID string, rating int) *ActivityEvent {
	return newEvent(EventCaseRated, CaseRatedEvent{
		CaseID: caseID,
		Rating: rating,
	})
}

func NewSessionSubmittedEvent(sessionID uint, caseID string, studentID uint, answerCount, correctCount, openCount int, duration *int, submittedAt time.Time) *ActivityEvent {
	return newEvent(EventSessionSubmitted, SessionSubmittedEvent{
		SessionID:       sessionID,
		CaseID:          caseID,
		StudentID:       studentID,
		AnswerCount:     answerCount,
		CorrectCount:    correctCount,
		OpenCount:       openCount,
		DurationSeconds: duration,
		SubmittedAt:     submittedAt,
	})
}

func NewAnswerFeedbackEvent(answerID, sessionID uint, score *float64) *ActivityEvent {
	return newEvent(EventAnswerFeedback, AnswerFeedbackEvent{
		AnswerID:  answerID,
		SessionID: sessionID,
		Score:     score,
	})
}

func newEvent(eventType EventType, data interface{}) *ActivityEvent {
	return &ActivityEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "casesim-service",
		Version:   "1.0",
		Data:      data,
	}
}
