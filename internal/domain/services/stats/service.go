package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/cache"
)

const (
	cacheKey     = "stats:dashboard"
	topLocations = 10
)

// Aggregator is the read surface of the stats repository.
type Aggregator interface {
	MonthlyVolume(ctx context.Context) ([]entities.MonthlyPoint, error)
	StatusDistribution(ctx context.Context) ([]entities.StatusCount, error)
	SeverityDistribution(ctx context.Context) ([]entities.SeverityCount, error)
	TopLocations(ctx context.Context, limit int) ([]entities.LocationCount, error)
}

// Service serves dashboard aggregates from a Redis cache, falling back to
// the database when the cache is cold.
type Service struct {
	repo   Aggregator
	cache  *cache.Cache
	logger *zap.Logger
	ttl    time.Duration
}

func NewService(repo Aggregator, c *cache.Cache, logger *zap.Logger, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: c, logger: logger, ttl: ttl}
}

// Dashboard returns the cached aggregates, recomputing them on a miss.
func (s *Service) Dashboard(ctx context.Context) (*entities.DashboardStats, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.logger.Warn("Stats cache read failed", zap.Error(err))
		} else if cached != "" {
			var stats entities.DashboardStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
			s.logger.Warn("Discarding unreadable cached stats", zap.Error(err))
		}
	}
	return s.Refresh(ctx)
}

// Invalidate drops the cached aggregates so the next dashboard read
// recomputes them. Called after a review save changes the underlying
// distribution.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cacheKey)
}

// Refresh recomputes the aggregates and rewrites the cache.
func (s *Service) Refresh(ctx context.Context) (*entities.DashboardStats, error) {
	monthly, err := s.repo.MonthlyVolume(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh dashboard stats: %w", err)
	}
	statuses, err := s.repo.StatusDistribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh dashboard stats: %w", err)
	}
	severities, err := s.repo.SeverityDistribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh dashboard stats: %w", err)
	}
	locations, err := s.repo.TopLocations(ctx, topLocations)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh dashboard stats: %w", err)
	}

	stats := &entities.DashboardStats{
		MonthlyVolume:        monthly,
		StatusDistribution:   statuses,
		SeverityDistribution: severities,
		TopLocations:         locations,
		GeneratedAt:          time.Now().UTC().Format(time.RFC3339),
	}

	if s.cache != nil {
		payload, err := json.Marshal(stats)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(payload), s.ttl); err != nil {
				s.logger.Warn("Stats cache write failed", zap.Error(err))
			}
		}
	}

	return stats, nil
}
