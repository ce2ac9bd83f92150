package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/pkg/metrics"
)

// StatsRepository runs the aggregate queries behind the dashboard charts.
type StatsRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewStatsRepository(db *sqlx.DB, logger *zap.Logger) *StatsRepository {
	return &StatsRepository{db: db, logger: logger}
}

// MonthlyVolume returns per-month transaction counts and totals for the
// trailing twelve months.
func (r *StatsRepository) MonthlyVolume(ctx context.Context) ([]entities.MonthlyPoint, error) {
	start := time.Now()
	defer func() { metrics.RecordQueryDuration("monthly_volume", "transactions", time.Since(start)) }()

	query := `
		SELECT to_char(date_trunc('month', transaction_time), 'YYYY-MM') AS month,
		       COUNT(*) AS count,
		       COALESCE(SUM(amount), 0) AS total
		FROM transactions
		WHERE transaction_time >= date_trunc('month', NOW()) - INTERVAL '11 months'
		GROUP BY 1
		ORDER BY 1`

	var points []entities.MonthlyPoint
	if err := r.db.SelectContext(ctx, &points, query); err != nil {
		r.logger.Error("Failed to aggregate monthly volume", zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate monthly volume: %w", err)
	}
	return points, nil
}

// StatusDistribution returns transaction counts grouped by status.
func (r *StatsRepository) StatusDistribution(ctx context.Context) ([]entities.StatusCount, error) {
	start := time.Now()
	defer func() { metrics.RecordQueryDuration("status_distribution", "transactions", time.Since(start)) }()

	query := `
		SELECT status, COUNT(*) AS count
		FROM transactions
		GROUP BY status
		ORDER BY count DESC`

	var counts []entities.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		r.logger.Error("Failed to aggregate status distribution", zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate status distribution: %w", err)
	}
	return counts, nil
}

// SeverityDistribution buckets transactions by fraud severity tier.
func (r *StatsRepository) SeverityDistribution(ctx context.Context) ([]entities.SeverityCount, error) {
	start := time.Now()
	defer func() { metrics.RecordQueryDuration("severity_distribution", "transactions", time.Since(start)) }()

	query := `
		SELECT CASE
		           WHEN fraud_probability >= 0.7 THEN 'high'
		           WHEN fraud_probability >= 0.4 THEN 'medium'
		           ELSE 'low'
		       END AS severity,
		       COUNT(*) AS count
		FROM transactions
		GROUP BY 1
		ORDER BY count DESC`

	var counts []entities.SeverityCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		r.logger.Error("Failed to aggregate severity distribution", zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate severity distribution: %w", err)
	}
	return counts, nil
}

// TopLocations returns the locations with the most flagged or blocked
// transactions.
func (r *StatsRepository) TopLocations(ctx context.Context, limit int) ([]entities.LocationCount, error) {
	start := time.Now()
	defer func() { metrics.RecordQueryDuration("top_locations", "transactions", time.Since(start)) }()

	query := `
		SELECT location, COUNT(*) AS count
		FROM transactions
		WHERE location IS NOT NULL AND status IN ('FLAGGED', 'BLOCKED')
		GROUP BY location
		ORDER BY count DESC
		LIMIT $1`

	var counts []entities.LocationCount
	if err := r.db.SelectContext(ctx, &counts, query, limit); err != nil {
		r.logger.Error("Failed to aggregate top locations", zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate top locations: %w", err)
	}
	return counts, nil
}
