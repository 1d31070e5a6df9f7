package repositories

import (
	"context"
	"time"

	"github.com/simts-edu/casesim-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CaseFilters struct {
	Theme      *string                 `json:"theme"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	Status     *models.CaseStatus      `json:"status"`
	CreatedBy  *uint                   `json:"created_by"`
	TitleQuery string                  `json:"title_query"`
	DateFrom   *time.Time              `json:"date_from"`
	DateTo     *time.Time              `json:"date_to"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`    // "created_at", "title", "rating"
	SortOrder  string                  `json:"sort_order"` // "asc", "desc"
}

type SessionFilters struct {
	StudentID *uint      `json:"student_id"`
	CaseID    *string    `json:"case_id"`
	Submitted *bool      `json:"submitted"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type Statistics struct {
	TotalCases    int64                            `json:"total_cases"`
	ByTheme       map[string]int64                 `json:"by_theme"`
	ByDifficulty  map[models.DifficultyLevel]int64 `json:"by_difficulty"`
	AverageRating float64                          `json:"average_rating"`
	RecentCases   []*models.Case                   `json:"recent_cases"`
	TotalSessions int64                            `json:"total_sessions"`
	TotalStudents int64                            `json:"total_students"`
}

// ===== REPOSITORY INTERFACES =====

// CaseRepository interface for case persistence
type CaseRepository interface {
	Create(ctx context.Context, c *models.Case) error
	GetByCaseID(ctx context.Context, caseID string) (*models.Case, error)
	Update(ctx context.Context, c *models.Case) error
	Delete(ctx context.Context, caseID string) error // Soft delete via status

	List(ctx context.Context, filters CaseFilters) ([]*models.Case, int64, error)
	UpdateRating(ctx context.Context, caseID string, rating int) error
	UpdateMeta(ctx context.Context, caseID string, tags []string, notes *string) error

	GetStatistics(ctx context.Context, recentLimit int) (*Statistics, error)
	ExistsByCaseID(ctx context.Context, caseID string) (bool, error)
}

// CollectionRepository interface for collection operations
type CollectionRepository interface {
	Create(ctx context.Context, collection *models.Collection) error
	GetByID(ctx context.Context, id uint) (*models.Collection, error)
	GetByIDWithCases(ctx context.Context, id uint) (*models.Collection, error)
	Update(ctx context.Context, collection *models.Collection) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, limit, offset int) ([]*models.Collection, int64, error)
	AddCase(ctx context.Context, collectionID uint, caseID string) error
	RemoveCase(ctx context.Context, collectionID uint, caseID string) error
	HasCase(ctx context.Context, collectionID uint, caseID string) (bool, error)
}

// StudentRepository interface for student accounts
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	GetByUsername(ctx context.Context, username string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Count(ctx context.Context) (int64, error)
}

// SessionRepository interface for answer sessions and their answers
type SessionRepository interface {
	Create(ctx context.Context, session *models.AnswerSession) error
	GetByID(ctx context.Context, id uint) (*models.AnswerSession, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.AnswerSession, error)
	List(ctx context.Context, filters SessionFilters) ([]*models.AnswerSession, int64, error)
	Count(ctx context.Context) (int64, error)

	GetAnswerByID(ctx context.Context, id uint) (*models.StudentAnswer, error)
	UpdateAnswerFeedback(ctx context.Context, answerID uint, feedback string, score *float64) error
}
