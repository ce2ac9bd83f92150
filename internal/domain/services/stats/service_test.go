package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
)

type fakeAggregator struct {
	calls int
	err   error
}

func (f *fakeAggregator) MonthlyVolume(context.Context) ([]entities.MonthlyPoint, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []entities.MonthlyPoint{{Month: "2026-08", Count: 42}}, nil
}

func (f *fakeAggregator) StatusDistribution(context.Context) ([]entities.StatusCount, error) {
	return []entities.StatusCount{
		{Status: entities.StatusLegitimate, Count: 30},
		{Status: entities.StatusFlagged, Count: 12},
	}, f.err
}

func (f *fakeAggregator) SeverityDistribution(context.Context) ([]entities.SeverityCount, error) {
	return []entities.SeverityCount{{Severity: entities.SeverityHigh, Count: 7}}, f.err
}

func (f *fakeAggregator) TopLocations(_ context.Context, limit int) ([]entities.LocationCount, error) {
	return []entities.LocationCount{{Location: "Dar es Salaam", Count: 5}}, f.err
}

func TestDashboardWithoutCache(t *testing.T) {
	agg := &fakeAggregator{}
	svc := NewService(agg, nil, zap.NewNop(), time.Minute)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.MonthlyVolume, 1)
	assert.Equal(t, "2026-08", stats.MonthlyVolume[0].Month)
	assert.Len(t, stats.StatusDistribution, 2)
	assert.NotEmpty(t, stats.GeneratedAt)
}

func TestInvalidateWithoutCache(t *testing.T) {
	svc := NewService(&fakeAggregator{}, nil, zap.NewNop(), time.Minute)
	require.NoError(t, svc.Invalidate(context.Background()))
}

func TestRefreshPropagatesErrors(t *testing.T) {
	agg := &fakeAggregator{err: errors.New("query failed")}
	svc := NewService(agg, nil, zap.NewNop(), time.Minute)

	_, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to refresh dashboard stats")
}
