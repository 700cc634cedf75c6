package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wonny/tradelog/backend/internal/analytics"
	"github.com/wonny/tradelog/backend/internal/journal"
	"github.com/wonny/tradelog/backend/internal/observability"
	"github.com/wonny/tradelog/backend/internal/store"
	"github.com/wonny/tradelog/backend/pkg/logger"
	"github.com/wonny/tradelog/backend/pkg/redis"
)

// ReportWarmJob recomputes and caches every active user's report ahead
// of market open, so the morning dashboard hits are warm
// ⭐ SSOT: 리포트 프리워밍은 이 작업에서만
type ReportWarmJob struct {
	tradeRepo *store.TradeRepository
	assembler *analytics.Assembler
	cache     *redis.Cache
	metrics   *observability.Metrics
	logger    *logger.Logger

	schedule string
	workers  int
}

// NewReportWarmJob creates a new report warm job
func NewReportWarmJob(tradeRepo *store.TradeRepository, assembler *analytics.Assembler, cache *redis.Cache, metrics *observability.Metrics, log *logger.Logger, schedule string, workers int) *ReportWarmJob {
	if workers < 1 {
		workers = 1
	}
	return &ReportWarmJob{
		tradeRepo: tradeRepo,
		assembler: assembler,
		cache:     cache,
		metrics:   metrics,
		logger:    log,
		schedule:  schedule,
		workers:   workers,
	}
}

func (j *ReportWarmJob) Name() string     { return "report_warm" }
func (j *ReportWarmJob) Schedule() string { return j.schedule }

// Run fans the user list out over a bounded worker pool. One user's
// bad data must not block everyone else's refresh, so per-user errors
// are logged and counted, not returned; the job only fails when the
// user list itself cannot be loaded.
func (j *ReportWarmJob) Run(ctx context.Context) error {
	userIDs, err := j.tradeRepo.ListActiveUserIDs(ctx)
	if err != nil {
		j.metrics.WarmRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to list active users: %w", err)
	}

	if len(userIDs) == 0 {
		j.metrics.WarmRunsTotal.WithLabelValues("ok").Inc()
		j.logger.Info("No active users to warm")
		return nil
	}

	work := make(chan int64)
	var wg sync.WaitGroup
	var refreshed, failed atomic.Int64

	for i := 0; i < j.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range work {
				if err := j.warmUser(ctx, userID); err != nil {
					failed.Add(1)
					j.logger.WithError(err).WithField("user_id", userID).Warn("Failed to warm report")
					continue
				}
				refreshed.Add(1)
				j.metrics.WarmUsersRefreshed.Inc()
			}
		}()
	}

	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			close(work)
			wg.Wait()
			j.metrics.WarmRunsTotal.WithLabelValues("cancelled").Inc()
			return ctx.Err()
		case work <- userID:
		}
	}
	close(work)
	wg.Wait()

	j.metrics.WarmRunsTotal.WithLabelValues("ok").Inc()
	j.logger.WithFields(map[string]interface{}{
		"users":     len(userIDs),
		"refreshed": refreshed.Load(),
		"failed":    failed.Load(),
	}).Info("Report warm completed")

	return nil
}

func (j *ReportWarmJob) warmUser(ctx context.Context, userID int64) error {
	trades, err := j.tradeRepo.GetClosedByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}

	series, err := journal.NewSeries(trades)
	if err != nil {
		return fmt.Errorf("build series: %w", err)
	}

	report, err := j.assembler.Assemble(ctx, userID, series)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	if err := j.cache.Set(ctx, redis.ReportKey(userID), report, redis.TTLMedium); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	return nil
}
