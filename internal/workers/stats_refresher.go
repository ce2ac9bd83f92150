package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/services/stats"
)

// StatsRefresher recomputes the dashboard aggregates on a schedule so the
// cache stays warm between requests.
type StatsRefresher struct {
	stats    *stats.Service
	logger   *zap.Logger
	schedule string
	cron     *cron.Cron
}

func NewStatsRefresher(statsService *stats.Service, logger *zap.Logger, schedule string) *StatsRefresher {
	return &StatsRefresher{
		stats:    statsService,
		logger:   logger,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the refresh job and begins the scheduler.
func (w *StatsRefresher) Start() error {
	_, err := w.cron.AddFunc(w.schedule, w.run)
	if err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("Stats refresher started", zap.String("schedule", w.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (w *StatsRefresher) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("Stats refresher stopped")
}

func (w *StatsRefresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	started := time.Now()
	if _, err := w.stats.Refresh(ctx); err != nil {
		w.logger.Error("Scheduled stats refresh failed", zap.Error(err))
		return
	}
	w.logger.Info("Scheduled stats refresh completed",
		zap.Duration("duration", time.Since(started)))
}
