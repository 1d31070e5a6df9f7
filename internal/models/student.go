package models

import (
	"time"

	"gorm.io/gorm"
)

type StudentStatus string

const (
	StudentActive   StudentStatus = "active"
	StudentDisabled StudentStatus = "disabled"
)

type Student struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	Username     string        `json:"username" gorm:"uniqueIndex;not null;size:100" validate:"required,min=3,max=100"`
	PasswordHash string        `json:"-" gorm:"not null"`
	Name         string        `json:"name" gorm:"size:200"`
	Email        string        `json:"email" gorm:"size:200" validate:"omitempty,email"`
	Status       StudentStatus `json:"status" gorm:"default:active;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Student) TableName() string {
	return "students"
}

// Role distinguishes the two kinds of authenticated principals. Teachers
// share one credential pair and carry no per-user identity.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)
