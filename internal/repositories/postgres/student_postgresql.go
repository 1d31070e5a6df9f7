package postgres

import (
	"context"
	"fmt"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/repositories"
	"gorm.io/gorm"
)

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

func (r *StudentPostgreSQL) Create(ctx context.Context, student *models.Student) error {
	if student.Status == "" {
		student.Status = models.StudentActive
	}
	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (r *StudentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).First(&student, id).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *StudentPostgreSQL) GetByUsername(ctx context.Context, username string) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *StudentPostgreSQL) Update(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Save(student).Error; err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

func (r *StudentPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("status = ?", models.StudentActive).
		Count(&count).Error
	return count, err
}
