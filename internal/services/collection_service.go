package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/repositories"
	"github.com/simts-edu/casesim-service/internal/validator"
)

// ===== REQUEST / RESPONSE TYPES =====

type CollectionRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

type CollectionListResponse struct {
	Collections []*models.Collection `json:"collections"`
	Total       int64                `json:"total"`
}

// CollectionService manages curated groupings of cases
type CollectionService interface {
	Create(ctx context.Context, req CollectionRequest) (*models.Collection, error)
	GetByID(ctx context.Context, id uint) (*models.Collection, error)
	Update(ctx context.Context, id uint, req CollectionRequest) (*models.Collection, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) (*CollectionListResponse, error)
	AddCase(ctx context.Context, collectionID uint, caseID string) (*models.Collection, error)
	RemoveCase(ctx context.Context, collectionID uint, caseID string) error
}

type collectionService struct {
	collections repositories.CollectionRepository
	cases       repositories.CaseRepository
	logger      *slog.Logger
	validator   *validator.Validator
}

func NewCollectionService(collections repositories.CollectionRepository, cases repositories.CaseRepository, logger *slog.Logger, v *validator.Validator) CollectionService {
	return &collectionService{
		collections: collections,
		cases:       cases,
		logger:      logger,
		validator:   v,
	}
}

func (s *collectionService) Create(ctx context.Context, req CollectionRequest) (*models.Collection, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	collection := &models.Collection{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.CollectionActive,
	}
	if err := s.collections.Create(ctx, collection); err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	s.logger.Info("Collection created", "collection_id", collection.ID, "name", collection.Name)
	return collection, nil
}

func (s *collectionService) GetByID(ctx context.Context, id uint) (*models.Collection, error) {
	collection, err := s.collections.GetByIDWithCases(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	return collection, nil
}

func (s *collectionService) Update(ctx context.Context, id uint, req CollectionRequest) (*models.Collection, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	collection := &models.Collection{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.collections.Update(ctx, collection); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *collectionService) Delete(ctx context.Context, id uint) error {
	if err := s.collections.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollectionNotFound
		}
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	s.logger.Info("Collection deleted", "collection_id", id)
	return nil
}

func (s *collectionService) List(ctx context.Context, limit, offset int) (*CollectionListResponse, error) {
	if limit == 0 {
		limit = 100
	}

	collections, total, err := s.collections.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	return &CollectionListResponse{Collections: collections, Total: total}, nil
}

// AddCase links an existing case into a collection. Both sides must
// exist and the membership must be new.
func (s *collectionService) AddCase(ctx context.Context, collectionID uint, caseID string) (*models.Collection, error) {
	if _, err := s.collections.GetByID(ctx, collectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}

	exists, err := s.cases.ExistsByCaseID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check case: %w", err)
	}
	if !exists {
		return nil, ErrCaseNotFound
	}

	member, err := s.collections.HasCase(ctx, collectionID, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return nil, ErrCaseAlreadyInSet
	}

	if err := s.collections.AddCase(ctx, collectionID, caseID); err != nil {
		return nil, fmt.Errorf("failed to add case: %w", err)
	}

	s.logger.Info("Case added to collection", "collection_id", collectionID, "case_id", caseID)
	return s.GetByID(ctx, collectionID)
}

func (s *collectionService) RemoveCase(ctx context.Context, collectionID uint, caseID string) error {
	if _, err := s.collections.GetByID(ctx, collectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollectionNotFound
		}
		return fmt.Errorf("failed to load collection: %w", err)
	}

	if err := s.collections.RemoveCase(ctx, collectionID, caseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCaseNotInCollection
		}
		return fmt.Errorf("failed to remove case: %w", err)
	}

	s.logger.Info("Case removed from collection", "collection_id", collectionID, "case_id", caseID)
	return nil
}
