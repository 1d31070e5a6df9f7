package models

import (
	"time"

	"gorm.io/gorm"
)

type CollectionStatus string

const (
	CollectionActive  CollectionStatus = "active"
	CollectionDeleted CollectionStatus = "deleted"
)

// Collection is a teacher-curated, named grouping of cases.
type Collection struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Name        string           `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description string           `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status      CollectionStatus `json:"status" gorm:"default:active;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Loaded through collection_cases on detail queries.
	Cases []Case `json:"cases,omitempty" gorm:"-"`

	// Computed on list queries, not stored.
	CaseCount int `json:"case_count" gorm:"-"`
}

func (Collection) TableName() string {
	return "collections"
}

// CollectionCase is the membership join row, keyed on the public case
// identifier. AddedAt orders the cases inside a collection view.
type CollectionCase struct {
	CollectionID uint      `json:"collection_id" gorm:"primaryKey"`
	CaseID       string    `json:"case_id" gorm:"primaryKey;size:64"`
	AddedAt      time.Time `json:"added_at"`
}

func (CollectionCase) TableName() string {
	return "collection_cases"
}
