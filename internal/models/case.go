package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CaseStatus string

const (
	CaseActive  CaseStatus = "active"
	CaseDeleted CaseStatus = "deleted"
)

type DifficultyLevel string

const (
	DifficultyBasic        DifficultyLevel = "basico"
	DifficultyIntermediate DifficultyLevel = "intermedio"
	DifficultyAdvanced     DifficultyLevel = "avanzado"
)

type CaseLength string

const (
	LengthShort  CaseLength = "corto"
	LengthMedium CaseLength = "medio"
	LengthLong   CaseLength = "largo"
)

// Themes offered by the simulator. Stored values are the Spanish labels
// the teaching staff works with; filters compare them verbatim.
var Themes = []string{
	"Familia y dinámicas familiares",
	"Infancia y adolescencia",
	"Salud mental",
	"Violencia intrafamiliar",
	"Adulto mayor",
	"Adicciones",
	"Migración y multiculturalidad",
	"Reinserción social",
}

// Case is one generated scenario. The full generator output lives in
// Payload; Title/Theme/Difficulty are denormalized for listing and filters.
type Case struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	CaseID     string          `json:"case_id" gorm:"size:64;index"`
	Title      string          `json:"title" gorm:"size:300;index"`
	Theme      string          `json:"theme" gorm:"size:120;index"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"size:20;index"`
	Payload    datatypes.JSON  `json:"payload"`
	Status     CaseStatus      `json:"status" gorm:"default:active;index"`
	Rating     int             `json:"rating" gorm:"default:0"`
	Tags       datatypes.JSON  `json:"tags"`
	Notes      string          `json:"notes" gorm:"type:text"`
	CreatedBy  *uint           `json:"created_by" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Case) TableName() string {
	return "cases"
}

// CasePayload is the structured body produced by the generator. Once a
// case is persisted its questions never change; answer sessions reference
// them by position.
type CasePayload struct {
	CaseID             string     `json:"case_id,omitempty"`
	Title              string     `json:"title"`
	Eje                string     `json:"eje,omitempty"`
	Nivel              string     `json:"nivel,omitempty"`
	Meta               string     `json:"meta,omitempty"`
	Description        string     `json:"description"`
	LearningObjectives []string   `json:"learning_objectives,omitempty"`
	Questions          []Question `json:"questions,omitempty"`

	// Legacy generator output kept for older saved cases.
	SuggestedQuestions     []string `json:"suggested_questions,omitempty"`
	SuggestedInterventions []string `json:"suggested_interventions,omitempty"`
}

// Question is either closed (Options with exactly one CorrectIndex) or
// open-ended (no Options, CorrectIndex nil).
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectIndex  *int     `json:"correct_index,omitempty"`
	Justification string   `json:"justification,omitempty"`
}

// IsOpen reports whether the question takes a free-text answer.
func (q Question) IsOpen() bool {
	return len(q.Options) == 0
}

// ParsePayload decodes the stored payload. An empty payload yields a zero
// value rather than an error so listings tolerate legacy rows.
func (c *Case) ParsePayload() (CasePayload, error) {
	var p CasePayload
	if len(c.Payload) == 0 {
		return p, nil
	}
	err := json.Unmarshal(c.Payload, &p)
	return p, err
}

// TagList decodes the stored tags, returning an empty slice for null.
func (c *Case) TagList() []string {
	var tags []string
	if len(c.Tags) == 0 {
		return tags
	}
	_ = json.Unmarshal(c.Tags, &tags)
	return tags
}
