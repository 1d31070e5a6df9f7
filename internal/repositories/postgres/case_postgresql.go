package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/repositories"
	"gorm.io/gorm"
)

type CasePostgreSQL struct {
	db *gorm.DB
}

func NewCasePostgreSQL(db *gorm.DB) repositories.CaseRepository {
	return &CasePostgreSQL{db: db}
}

// Create persists a new case
func (r *CasePostgreSQL) Create(ctx context.Context, c *models.Case) error {
	if c.Status == "" {
		c.Status = models.CaseActive
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

// GetByCaseID retrieves a case by its public identifier
func (r *CasePostgreSQL) GetByCaseID(ctx context.Context, caseID string) (*models.Case, error) {
	var c models.Case
	err := r.db.WithContext(ctx).
		Where("case_id = ? AND status = ?", caseID, models.CaseActive).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update saves the full case record
func (r *CasePostgreSQL) Update(ctx context.Context, c *models.Case) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Case
		if err := tx.Where("case_id = ?", c.CaseID).First(&current).Error; err != nil {
			return fmt.Errorf("case not found: %w", err)
		}
		c.ID = current.ID
		c.UpdatedAt = time.Now()
		if err := tx.Save(c).Error; err != nil {
			return fmt.Errorf("failed to update case: %w", err)
		}
		return nil
	})
}

// Delete soft deletes a case by flipping its status
func (r *CasePostgreSQL) Delete(ctx context.Context, caseID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Where("case_id = ? AND status = ?", caseID, models.CaseActive).
		Updates(map[string]interface{}{
			"status":     models.CaseDeleted,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List retrieves cases with filters and pagination
func (r *CasePostgreSQL) List(ctx context.Context, filters repositories.CaseFilters) ([]*models.Case, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Case{})
	query = r.applyFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.applyPaginationAndSort(query, filters)

	var cases []*models.Case
	if err := query.Find(&cases).Error; err != nil {
		return nil, 0, err
	}

	return cases, total, nil
}

// UpdateRating sets the rating for a case
func (r *CasePostgreSQL) UpdateRating(ctx context.Context, caseID string, rating int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Where("case_id = ? AND status = ?", caseID, models.CaseActive).
		Updates(map[string]interface{}{
			"rating":     rating,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateMeta updates tags and notes on a case
func (r *CasePostgreSQL) UpdateMeta(ctx context.Context, caseID string, tags []string, notes *string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if tags != nil {
		raw, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}
		updates["tags"] = raw
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	result := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Where("case_id = ? AND status = ?", caseID, models.CaseActive).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetStatistics aggregates counts over active cases
func (r *CasePostgreSQL) GetStatistics(ctx context.Context, recentLimit int) (*repositories.Statistics, error) {
	stats := &repositories.Statistics{
		ByTheme:      make(map[string]int64),
		ByDifficulty: make(map[models.DifficultyLevel]int64),
	}

	active := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Where("status = ?", models.CaseActive)

	if err := active.Count(&stats.TotalCases).Error; err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var themeBuckets []bucket
	err := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Select("theme AS key, COUNT(*) AS count").
		Where("status = ?", models.CaseActive).
		Group("theme").
		Scan(&themeBuckets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by theme: %w", err)
	}
	for _, b := range themeBuckets {
		stats.ByTheme[b.Key] = b.Count
	}

	var diffBuckets []bucket
	err = r.db.WithContext(ctx).
		Model(&models.Case{}).
		Select("difficulty AS key, COUNT(*) AS count").
		Where("status = ?", models.CaseActive).
		Group("difficulty").
		Scan(&diffBuckets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by difficulty: %w", err)
	}
	for _, b := range diffBuckets {
		stats.ByDifficulty[models.DifficultyLevel(b.Key)] = b.Count
	}

	var avg *float64
	err = r.db.WithContext(ctx).
		Model(&models.Case{}).
		Select("AVG(rating)").
		Where("status = ? AND rating > 0", models.CaseActive).
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}
	if avg != nil {
		stats.AverageRating = *avg
	}

	if recentLimit > 0 {
		err = r.db.WithContext(ctx).
			Where("status = ?", models.CaseActive).
			Order("created_at DESC").
			Limit(recentLimit).
			Find(&stats.RecentCases).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load recent cases: %w", err)
		}
	}

	return stats, nil
}

// ExistsByCaseID checks whether an active case with the identifier exists
func (r *CasePostgreSQL) ExistsByCaseID(ctx context.Context, caseID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Where("case_id = ? AND status = ?", caseID, models.CaseActive).
		Count(&count).Error
	return count > 0, err
}

func (r *CasePostgreSQL) applyFilters(query *gorm.DB, filters repositories.CaseFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	} else {
		query = query.Where("status = ?", models.CaseActive)
	}
	if filters.Theme != nil {
		query = query.Where("theme = ?", *filters.Theme)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.TitleQuery != "" {
		query = query.Where("title ILIKE ?", fmt.Sprintf("%%%s%%", filters.TitleQuery))
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (r *CasePostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.CaseFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "title", "rating", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := filters.SortOrder
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
