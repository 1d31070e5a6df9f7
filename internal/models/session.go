package models

import (
	"time"
)

// AnswerSession is one student's full set of answers for one case,
// created at submission time.
type AnswerSession struct {
	ID              uint       `json:"session_id" gorm:"primaryKey"`
	StudentID       uint       `json:"student_id" gorm:"not null;index"`
	CaseID          string     `json:"case_id" gorm:"not null;size:64;index"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	DurationSeconds *int       `json:"duration_seconds"`

	CreatedAt time.Time `json:"created_at"`

	Student Student         `json:"-" gorm:"foreignKey:StudentID"`
	Case    Case            `json:"-" gorm:"foreignKey:CaseID;references:CaseID"`
	Answers []StudentAnswer `json:"answers,omitempty" gorm:"foreignKey:SessionID"`

	// Denormalized for teacher listings, not stored.
	StudentUsername string `json:"student_username" gorm:"-"`
	StudentName     string `json:"student_name" gorm:"-"`
	CaseTitle       string `json:"case_title" gorm:"-"`
}

func (AnswerSession) TableName() string {
	return "student_sessions"
}

// StudentAnswer is one response. Exactly one of SelectedOption and
// OpenAnswer is set, matching the question's type at QuestionIndex.
type StudentAnswer struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	SessionID      uint    `json:"session_id" gorm:"not null;index"`
	QuestionIndex  int     `json:"question_index" gorm:"not null"`
	SelectedOption *int    `json:"selected_option"`
	OpenAnswer     *string `json:"open_answer" gorm:"type:text"`

	// Marked at submission for closed questions; nil for open ones.
	IsCorrect *bool `json:"is_correct"`

	// Teacher feedback, attached after the fact.
	Feedback *string  `json:"feedback" gorm:"type:text"`
	Score    *float64 `json:"score"`

	CreatedAt time.Time `json:"created_at"`
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}

// IsOpen reports whether this answer is free text.
func (a *StudentAnswer) IsOpen() bool {
	return a.OpenAnswer != nil
}
