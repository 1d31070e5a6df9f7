package client

import "encoding/json"

// Question is one question inside a generated case. Closed questions
// carry options and a correct index; open questions carry neither.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectIndex  *int     `json:"correct_index,omitempty"`
	Justification string   `json:"justification,omitempty"`
}

// IsOpen reports whether the question expects free text
func (q *Question) IsOpen() bool {
	return len(q.Options) == 0
}

// Case is the generated clinical case body
type Case struct {
	CaseID             string     `json:"case_id,omitempty"`
	Title              string     `json:"title"`
	Eje                string     `json:"eje,omitempty"`
	Nivel              string     `json:"nivel,omitempty"`
	Meta               string     `json:"meta,omitempty"`
	Description        string     `json:"description"`
	LearningObjectives []string   `json:"learning_objectives,omitempty"`
	Questions          []Question `json:"questions,omitempty"`
}

// CaseRecord is a stored case as the catalog endpoints return it
type CaseRecord struct {
	CaseID     string   `json:"case_id"`
	Title      string   `json:"title"`
	Theme      string   `json:"theme"`
	Difficulty string   `json:"difficulty"`
	Payload    Case     `json:"payload"`
	Rating     int      `json:"rating"`
	Tags       []string `json:"tags"`
	Notes      string   `json:"notes"`
	CreatedAt  string   `json:"created_at"`
}

// GenerateParams drives case generation
type GenerateParams struct {
	Theme      string `json:"theme,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	AgeGroup   string `json:"age_group,omitempty"`
	Context    string `json:"context,omitempty"`
	FocusArea  string `json:"focus_area,omitempty"`
	Competency string `json:"competency,omitempty"`
	CaseLength string `json:"case_length,omitempty"`
}

// GenerateMetrics reports server-side timing for one generation
type GenerateMetrics struct {
	APITimeMs        float64 `json:"api_time_ms"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	Engine           string  `json:"engine"`
}

// GenerateResult is what the simulate endpoint produced. Case is nil
// when the model reply could not be parsed; Text still carries the raw
// reply so nothing is lost.
type GenerateResult struct {
	OK          bool             `json:"ok"`
	Case        *Case            `json:"case,omitempty"`
	Saved       *CaseRecord      `json:"saved,omitempty"`
	Text        string           `json:"text,omitempty"`
	RawResponse json.RawMessage  `json:"raw_response,omitempty"`
	Metrics     *GenerateMetrics `json:"metrics,omitempty"`
}

// AnswerItem is one answer inside a submission
type AnswerItem struct {
	QuestionIndex  int     `json:"question_index"`
	SelectedOption *int    `json:"selected_option,omitempty"`
	OpenAnswer     *string `json:"open_answer,omitempty"`
}

// SubmitResult identifies the stored session after a submission
type SubmitResult struct {
	OK        bool `json:"ok"`
	SessionID uint `json:"session_id"`
}

// AnswerFeedback is a teacher's review of one answer
type AnswerFeedback struct {
	Feedback string   `json:"feedback"`
	Score    *float64 `json:"score,omitempty"`
}

// Statistics is the admin overview
type Statistics struct {
	TotalCases    int64            `json:"total_cases"`
	ByTheme       map[string]int64 `json:"by_theme"`
	ByDifficulty  map[string]int64 `json:"by_difficulty"`
	AverageRating float64          `json:"average_rating"`
	RecentCases   []*CaseRecord    `json:"recent_cases"`
	TotalSessions int64            `json:"total_sessions"`
	TotalStudents int64            `json:"total_students"`
}

// HealthStatus is the health endpoint body
type HealthStatus struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	DBConnected   bool   `json:"db_connected"`
	LLMConfigured bool   `json:"llm_configured"`
}
