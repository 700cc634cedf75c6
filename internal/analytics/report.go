package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/tradelog/backend/internal/journal"
	"github.com/wonny/tradelog/backend/pkg/logger"
)

// =============================================================================
// Report Assembly
// =============================================================================

// Report is the merged analysis document for one user's series.
// Every section is recomputed from the same immutable series snapshot,
// so the sections are mutually consistent by construction.
type Report struct {
	UserID      int64           `json:"user_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	TradeCount  int             `json:"trade_count"`
	Metrics     MetricsSnapshot `json:"metrics"`
	Streaks     StreakRecord    `json:"streaks"`
	Risk        RiskSnapshot    `json:"risk"`
	Symbols     []GroupReport   `json:"symbols"`
	Strategies  []GroupReport   `json:"strategies"`
	Tags        []GroupReport   `json:"tags"`
}

// Assembler fans the analyzers out over one series and merges their
// results. Stateless apart from configuration; safe for concurrent use.
type Assembler struct {
	riskFreeRate float64
	log          *logger.Logger
}

func NewAssembler(riskFreeRate float64, log *logger.Logger) *Assembler {
	return &Assembler{riskFreeRate: riskFreeRate, log: log}
}

// Assemble runs every section concurrently against the shared
// read-only series. Each goroutine writes only its own field, so no
// mutex is needed; the WaitGroup is the only synchronization point.
// Any section failure (cancellation included) fails the whole report.
func (a *Assembler) Assemble(ctx context.Context, userID int64, series *journal.Series) (*Report, error) {
	started := time.Now()

	report := &Report{
		UserID:      userID,
		GeneratedAt: started.UTC(),
		TradeCount:  series.Len(),
	}

	var wg sync.WaitGroup
	var riskErr, symbolErr, strategyErr, tagErr error

	wg.Add(5)

	go func() {
		defer wg.Done()
		report.Metrics = ComputeMetrics(series)
		report.Streaks = ComputeStreaks(series)
	}()

	go func() {
		defer wg.Done()
		report.Risk, riskErr = ComputeRisk(ctx, series, a.riskFreeRate)
	}()

	go func() {
		defer wg.Done()
		report.Symbols, symbolErr = GroupBy(ctx, series, BySymbol, GroupOptions{})
	}()

	go func() {
		defer wg.Done()
		report.Strategies, strategyErr = GroupBy(ctx, series, ByStrategy, GroupOptions{})
	}()

	go func() {
		defer wg.Done()
		report.Tags, tagErr = GroupByTag(ctx, series, GroupOptions{})
	}()

	wg.Wait()

	for _, err := range []error{riskErr, symbolErr, strategyErr, tagErr} {
		if err != nil {
			return nil, fmt.Errorf("assemble report for user %d: %w", userID, err)
		}
	}

	a.log.WithFields(map[string]interface{}{
		"user_id":  userID,
		"trades":   series.Len(),
		"duration": time.Since(started).String(),
	}).Debug("report assembled")

	return report, nil
}

// AssembleGroups computes one grouping dimension on demand, for the
// drill-down endpoints that do not need the full report.
func (a *Assembler) AssembleGroups(ctx context.Context, series *journal.Series, dimension string) ([]GroupReport, error) {
	opts := GroupOptions{IncludeRisk: true, RiskFreeRate: a.riskFreeRate}

	switch dimension {
	case "symbol":
		return GroupBy(ctx, series, BySymbol, opts)
	case "strategy":
		return GroupBy(ctx, series, ByStrategy, opts)
	case "hour":
		return GroupBy(ctx, series, ByHourOfEntry, opts)
	case "weekday":
		return GroupBy(ctx, series, ByDayOfWeek, opts)
	case "month":
		return GroupBy(ctx, series, ByMonth, opts)
	case "quarter":
		return GroupBy(ctx, series, ByQuarter, opts)
	case "tag":
		return GroupByTag(ctx, series, opts)
	default:
		return nil, fmt.Errorf("unknown grouping dimension %q", dimension)
	}
}
