package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simts-edu/casesim-service/internal/cache"
	"github.com/simts-edu/casesim-service/internal/repositories"
)

const statsCacheKey = "stats:overview"
const statsRecentLimit = 5

// ===== RESPONSE TYPES =====

type StatisticsResponse struct {
	TotalCases    int64            `json:"total_cases"`
	ByTheme       map[string]int64 `json:"by_theme"`
	ByDifficulty  map[string]int64 `json:"by_difficulty"`
	AverageRating float64          `json:"average_rating"`
	RecentCases   []*CaseResponse  `json:"recent_cases"`
	TotalSessions int64            `json:"total_sessions"`
	TotalStudents int64            `json:"total_students"`
}

// StatisticsService aggregates teacher-facing usage numbers
type StatisticsService interface {
	GetStatistics(ctx context.Context) (*StatisticsResponse, error)
}

type statisticsService struct {
	cases    repositories.CaseRepository
	sessions repositories.SessionRepository
	students repositories.StudentRepository
	cache    cache.CacheService
	logger   *slog.Logger
}

func NewStatisticsService(cases repositories.CaseRepository, sessions repositories.SessionRepository, students repositories.StudentRepository, cacheService cache.CacheService, logger *slog.Logger) StatisticsService {
	return &statisticsService{
		cases:    cases,
		sessions: sessions,
		students: students,
		cache:    cacheService,
		logger:   logger,
	}
}

// GetStatistics serves from cache when fresh; the underlying
// aggregation touches every table.
func (s *statisticsService) GetStatistics(ctx context.Context) (*StatisticsResponse, error) {
	var cached StatisticsResponse
	if err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil {
		return &cached, nil
	}

	stats, err := s.cases.GetStatistics(ctx, statsRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate case statistics: %w", err)
	}

	totalSessions, err := s.sessions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	resp := &StatisticsResponse{
		TotalCases:    stats.TotalCases,
		ByTheme:       stats.ByTheme,
		ByDifficulty:  make(map[string]int64, len(stats.ByDifficulty)),
		AverageRating: stats.AverageRating,
		RecentCases:   make([]*CaseResponse, 0, len(stats.RecentCases)),
		TotalSessions: totalSessions,
		TotalStudents: totalStudents,
	}
	if resp.ByTheme == nil {
		resp.ByTheme = map[string]int64{}
	}
	for level, count := range stats.ByDifficulty {
		resp.ByDifficulty[string(level)] = count
	}
	for _, c := range stats.RecentCases {
		cr, err := toCaseResponse(c)
		if err != nil {
			s.logger.Warn("Skipping recent case with bad payload", "case_id", c.CaseID, "error", err)
			continue
		}
		resp.RecentCases = append(resp.RecentCases, cr)
	}

	if err := s.cache.Set(ctx, statsCacheKey, resp, cacheTTLStats); err != nil {
		s.logger.Warn("Failed to cache statistics", "error", err)
	}

	return resp, nil
}
