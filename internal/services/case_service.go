package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/simts-edu/casesim-service/internal/cache"
	"github.com/simts-edu/casesim-service/internal/events"
	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/repositories"
	"github.com/simts-edu/casesim-service/internal/validator"
)

// Cache TTLs shared across services.
const (
	cacheTTLCase  = 10 * time.Minute
	cacheTTLStats = 2 * time.Minute
)

// ===== REQUEST / RESPONSE TYPES =====

type SaveCaseRequest struct {
	Payload models.CasePayload `json:"case" validate:"required"`
}

type ListCasesRequest struct {
	Theme      string `form:"theme" validate:"omitempty,case_theme"`
	Difficulty string `form:"difficulty" validate:"omitempty,difficulty_level"`
	Title      string `form:"title"`
	Status     string `form:"status" validate:"omitempty,oneof=active deleted"`
	CreatedBy  *uint  `form:"created_by"`
	Limit      int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset     int    `form:"offset" validate:"omitempty,min=0"`
}

type UpdateCaseRequest struct {
	Rating *int     `json:"rating" validate:"omitempty,rating_range"`
	Tags   []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Notes  *string  `json:"notes" validate:"omitempty,max=2000"`
}

type CaseResponse struct {
	CaseID     string             `json:"case_id"`
	Title      string             `json:"title"`
	Theme      string             `json:"theme"`
	Difficulty string             `json:"difficulty"`
	Payload    models.CasePayload `json:"payload"`
	Rating     int                `json:"rating"`
	Tags       []string           `json:"tags"`
	Notes      string             `json:"notes"`
	CreatedAt  string             `json:"created_at"`
}

type CaseListResponse struct {
	Cases []*CaseResponse `json:"cases"`
	Total int64           `json:"total"`
}

// CaseService manages stored cases
type CaseService interface {
	Save(ctx context.Context, payload *models.CasePayload, theme, difficulty string, createdBy *uint) (*CaseResponse, error)
	GetByID(ctx context.Context, caseID string) (*CaseResponse, error)
	List(ctx context.Context, req ListCasesRequest) (*CaseListResponse, error)
	Update(ctx context.Context, caseID string, req UpdateCaseRequest) (*CaseResponse, error)
	Delete(ctx context.Context, caseID string) error
}

type caseService struct {
	repo      repositories.CaseRepository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCaseService(repo repositories.CaseRepository, cacheService cache.CacheService, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) CaseService {
	return &caseService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// Save persists a case payload, minting a case_id when the payload has
// none. Duplicate identifiers get a fresh one rather than an error so
// re-imports never clash.
func (s *caseService) Save(ctx context.Context, payload *models.CasePayload, theme, difficulty string, createdBy *uint) (*CaseResponse, error) {
	if payload == nil || strings.TrimSpace(payload.Title) == "" {
		return nil, NewValidationError("case", "case payload must include a title", nil)
	}

	caseID := strings.TrimSpace(payload.CaseID)
	if caseID == "" {
		caseID = newCaseID()
	} else {
		exists, err := s.repo.ExistsByCaseID(ctx, caseID)
		if err != nil {
			return nil, fmt.Errorf("failed to check case id: %w", err)
		}
		if exists {
			caseID = newCaseID()
		}
	}
	payload.CaseID = caseID

	if difficulty == "" {
		difficulty = payload.Nivel
	}
	if difficulty == "" {
		difficulty = string(models.DifficultyBasic)
	}
	if theme == "" {
		theme = payload.Eje
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	c := &models.Case{
		CaseID:     caseID,
		Title:      payload.Title,
		Theme:      theme,
		Difficulty: models.DifficultyLevel(difficulty),
		Payload:    datatypes.JSON(raw),
		Status:     models.CaseActive,
		CreatedBy:  createdBy,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save case: %w", err)
	}

	s.invalidateListings(ctx)
	s.logger.Info("Case saved", "case_id", caseID, "theme", theme, "difficulty", difficulty)

	return toCaseResponse(c)
}

func (s *caseService) GetByID(ctx context.Context, caseID string) (*CaseResponse, error) {
	cacheKey := "case:" + caseID

	var cached CaseResponse
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	c, err := s.repo.GetByCaseID(ctx, caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to load case: %w", err)
	}

	resp, err := toCaseResponse(c)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, cacheKey, resp, cacheTTLCase)
	return resp, nil
}

func (s *caseService) List(ctx context.Context, req ListCasesRequest) (*CaseListResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	filters := repositories.CaseFilters{
		TitleQuery: req.Title,
		CreatedBy:  req.CreatedBy,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}
	if req.Status != "" {
		status := models.CaseStatus(req.Status)
		filters.Status = &status
	}
	if filters.Limit == 0 {
		filters.Limit = 50
	}
	if req.Theme != "" {
		theme := req.Theme
		filters.Theme = &theme
	}
	if req.Difficulty != "" {
		difficulty := models.DifficultyLevel(req.Difficulty)
		filters.Difficulty = &difficulty
	}

	cases, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	resp := &CaseListResponse{Total: total, Cases: make([]*CaseResponse, 0, len(cases))}
	for _, c := range cases {
		cr, err := toCaseResponse(c)
		if err != nil {
			s.logger.Warn("Skipping case with bad payload", "case_id", c.CaseID, "error", err)
			continue
		}
		resp.Cases = append(resp.Cases, cr)
	}

	return resp, nil
}

func (s *caseService) Update(ctx context.Context, caseID string, req UpdateCaseRequest) (*CaseResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	if req.Rating != nil {
		if err := s.repo.UpdateRating(ctx, caseID, *req.Rating); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCaseNotFound
			}
			return nil, fmt.Errorf("failed to update rating: %w", err)
		}
		if perr := s.publisher.PublishActivityEvent(ctx, events.NewCaseRatedEvent(caseID, *req.Rating)); perr != nil {
			s.logger.Warn("Failed to publish rating event", "case_id", caseID, "error", perr)
		}
	}

	if req.Tags != nil || req.Notes != nil {
		if err := s.repo.UpdateMeta(ctx, caseID, req.Tags, req.Notes); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCaseNotFound
			}
			return nil, fmt.Errorf("failed to update case metadata: %w", err)
		}
	}

	_ = s.cache.Delete(ctx, "case:"+caseID)
	s.invalidateListings(ctx)

	return s.GetByID(ctx, caseID)
}

func (s *caseService) Delete(ctx context.Context, caseID string) error {
	if err := s.repo.Delete(ctx, caseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCaseNotFound
		}
		return fmt.Errorf("failed to delete case: %w", err)
	}

	_ = s.cache.Delete(ctx, "case:"+caseID)
	s.invalidateListings(ctx)

	if perr := s.publisher.PublishActivityEvent(ctx, events.NewCaseDeletedEvent(caseID)); perr != nil {
		s.logger.Warn("Failed to publish delete event", "case_id", caseID, "error", perr)
	}

	s.logger.Info("Case deleted", "case_id", caseID)
	return nil
}

func (s *caseService) invalidateListings(ctx context.Context) {
	_ = s.cache.DeletePattern(ctx, "stats:*")
}

func toCaseResponse(c *models.Case) (*CaseResponse, error) {
	payload, err := c.ParsePayload()
	if err != nil {
		return nil, fmt.Errorf("case %s has malformed payload: %w", c.CaseID, err)
	}

	tags := c.TagList()
	if tags == nil {
		tags = []string{}
	}

	return &CaseResponse{
		CaseID:     c.CaseID,
		Title:      c.Title,
		Theme:      c.Theme,
		Difficulty: string(c.Difficulty),
		Payload:    payload,
		Rating:     c.Rating,
		Tags:       tags,
		Notes:      c.Notes,
		CreatedAt:  c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

func newCaseID() string {
	return "case-" + uuid.NewString()[:8]
}
