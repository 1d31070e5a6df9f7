package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/repositories"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

// Create persists the session together with its answers in one
// transaction
func (r *SessionPostgreSQL) Create(ctx context.Context, session *models.AnswerSession) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answers := session.Answers
		session.Answers = nil

		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		for i := range answers {
			answers[i].SessionID = session.ID
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return fmt.Errorf("failed to create answers: %w", err)
			}
		}

		session.Answers = answers
		return nil
	})
}

func (r *SessionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.AnswerSession, error) {
	var session models.AnswerSession
	err := r.db.WithContext(ctx).First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByIDWithAnswers loads the session, its answers in question order,
// and the listing fields
func (r *SessionPostgreSQL) GetByIDWithAnswers(ctx context.Context, id uint) (*models.AnswerSession, error) {
	var session models.AnswerSession
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Case").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_index ASC")
		}).
		First(&session, id).Error
	if err != nil {
		return nil, err
	}

	r.fillListingFields(&session)
	return &session, nil
}

// List retrieves sessions with filters, newest first
func (r *SessionPostgreSQL) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.AnswerSession, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AnswerSession{})

	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.CaseID != nil {
		query = query.Where("case_id = ?", *filters.CaseID)
	}
	if filters.Submitted != nil {
		if *filters.Submitted {
			query = query.Where("submitted_at IS NOT NULL")
		} else {
			query = query.Where("submitted_at IS NULL")
		}
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var sessions []*models.AnswerSession
	err := query.
		Preload("Student").
		Preload("Case").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_index ASC")
		}).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}

	for _, s := range sessions {
		r.fillListingFields(s)
	}

	return sessions, total, nil
}

func (r *SessionPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AnswerSession{}).
		Count(&count).Error
	return count, err
}

func (r *SessionPostgreSQL) GetAnswerByID(ctx context.Context, id uint) (*models.StudentAnswer, error) {
	var answer models.StudentAnswer
	err := r.db.WithContext(ctx).First(&answer, id).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// UpdateAnswerFeedback attaches teacher feedback and an optional score
func (r *SessionPostgreSQL) UpdateAnswerFeedback(ctx context.Context, answerID uint, feedback string, score *float64) error {
	updates := map[string]interface{}{
		"feedback": feedback,
	}
	if score != nil {
		updates["score"] = *score
	}

	result := r.db.WithContext(ctx).
		Model(&models.StudentAnswer{}).
		Where("id = ?", answerID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *SessionPostgreSQL) fillListingFields(s *models.AnswerSession) {
	s.StudentUsername = s.Student.Username
	s.StudentName = s.Student.Name
	s.CaseTitle = s.Case.Title

	if s.SubmittedAt == nil && s.CreatedAt != (time.Time{}) {
		// Sessions are written at submission time; CreatedAt stands in
		// for rows predating the submitted_at column.
		t := s.CreatedAt
		s.SubmittedAt = &t
	}
}
