package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/repositories"
	"gorm.io/gorm"
)

type CollectionPostgreSQL struct {
	db *gorm.DB
}

func NewCollectionPostgreSQL(db *gorm.DB) repositories.CollectionRepository {
	return &CollectionPostgreSQL{db: db}
}

func (r *CollectionPostgreSQL) Create(ctx context.Context, collection *models.Collection) error {
	if collection.Status == "" {
		collection.Status = models.CollectionActive
	}
	if err := r.db.WithContext(ctx).Create(collection).Error; err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (r *CollectionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).
		Where("status = ?", models.CollectionActive).
		First(&collection, id).Error
	if err != nil {
		return nil, err
	}

	var count int64
	err = r.db.WithContext(ctx).
		Model(&models.CollectionCase{}).
		Where("collection_id = ?", id).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	collection.CaseCount = int(count)

	return &collection, nil
}

// GetByIDWithCases loads the collection and its member cases, ordered
// by membership time
func (r *CollectionPostgreSQL) GetByIDWithCases(ctx context.Context, id uint) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).
		Where("status = ?", models.CollectionActive).
		First(&collection, id).Error
	if err != nil {
		return nil, err
	}

	var cases []models.Case
	err = r.db.WithContext(ctx).
		Model(&models.Case{}).
		Joins("JOIN collection_cases ON collection_cases.case_id = cases.case_id").
		Where("collection_cases.collection_id = ? AND cases.status = ?", id, models.CaseActive).
		Order("collection_cases.added_at ASC").
		Find(&cases).Error
	if err != nil {
		return nil, err
	}

	collection.Cases = cases
	collection.CaseCount = len(cases)
	return &collection, nil
}

func (r *CollectionPostgreSQL) Update(ctx context.Context, collection *models.Collection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Collection
		err := tx.Where("status = ?", models.CollectionActive).
			First(&current, collection.ID).Error
		if err != nil {
			return fmt.Errorf("collection not found: %w", err)
		}
		collection.UpdatedAt = time.Now()
		if err := tx.Model(&current).Updates(map[string]interface{}{
			"name":        collection.Name,
			"description": collection.Description,
			"updated_at":  collection.UpdatedAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to update collection: %w", err)
		}
		return nil
	})
}

// Delete soft deletes a collection and clears its memberships
func (r *CollectionPostgreSQL) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Collection{}).
			Where("id = ? AND status = ?", id, models.CollectionActive).
			Updates(map[string]interface{}{
				"status":     models.CollectionDeleted,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("collection_id = ?", id).
			Delete(&models.CollectionCase{}).Error
	})
}

func (r *CollectionPostgreSQL) List(ctx context.Context, limit, offset int) ([]*models.Collection, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Collection{}).
		Where("status = ?", models.CollectionActive)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var collections []*models.Collection
	q := query.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&collections).Error; err != nil {
		return nil, 0, err
	}

	for _, c := range collections {
		var count int64
		err := r.db.WithContext(ctx).
			Model(&models.CollectionCase{}).
			Where("collection_id = ?", c.ID).
			Count(&count).Error
		if err != nil {
			return nil, 0, err
		}
		c.CaseCount = int(count)
	}

	return collections, total, nil
}

func (r *CollectionPostgreSQL) AddCase(ctx context.Context, collectionID uint, caseID string) error {
	row := &models.CollectionCase{
		CollectionID: collectionID,
		CaseID:       caseID,
		AddedAt:      time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to add case to collection: %w", err)
	}
	return nil
}

func (r *CollectionPostgreSQL) RemoveCase(ctx context.Context, collectionID uint, caseID string) error {
	result := r.db.WithContext(ctx).
		Where("collection_id = ? AND case_id = ?", collectionID, caseID).
		Delete(&models.CollectionCase{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CollectionPostgreSQL) HasCase(ctx context.Context, collectionID uint, caseID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CollectionCase{}).
		Where("collection_id = ? AND case_id = ?", collectionID, caseID).
		Count(&count).Error
	return count > 0, err
}
