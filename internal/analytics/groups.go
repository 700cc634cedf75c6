package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/tradelog/backend/internal/journal"
)

// =============================================================================
// Group Aggregation
// =============================================================================

// GroupKeyFunc maps a trade to its group key. Each trade lands in
// exactly one group, so the groups partition the series.
type GroupKeyFunc func(journal.Trade) string

// Built-in grouping dimensions. Entry-side dimensions (hour, weekday)
// describe when positions were opened; calendar dimensions (month,
// quarter) bucket by when pnl was realized.
func BySymbol(t journal.Trade) string   { return t.Symbol }
func ByStrategy(t journal.Trade) string { return t.Strategy }

func ByHourOfEntry(t journal.Trade) string {
	return fmt.Sprintf("%02d", t.EntryTime.UTC().Hour())
}

func ByDayOfWeek(t journal.Trade) string {
	return t.EntryTime.UTC().Weekday().String()
}

func ByMonth(t journal.Trade) string {
	return t.ExitTime.UTC().Format("2006-01")
}

func ByQuarter(t journal.Trade) string {
	exit := t.ExitTime.UTC()
	return fmt.Sprintf("%d-Q%d", exit.Year(), (int(exit.Month())-1)/3+1)
}

// GroupOptions controls per-group computation. Risk statistics are
// opt-in since most groups are too small for them to mean anything.
type GroupOptions struct {
	IncludeRisk  bool
	RiskFreeRate float64
}

// GroupReport is the re-reduced analysis of one group's sub-series
type GroupReport struct {
	Key        string          `json:"key"`
	TradeCount int             `json:"trade_count"`
	Metrics    MetricsSnapshot `json:"metrics"`
	Streaks    StreakRecord    `json:"streaks"`
	Risk       *RiskSnapshot   `json:"risk,omitempty"`
}

// GroupBy partitions the series by keyFn and recomputes the full
// metric set per group over each group's own sub-series. Groups with
// zero trades cannot occur and are never emitted; results are sorted
// by key for stable output. The context is checked between groups.
func GroupBy(ctx context.Context, series *journal.Series, keyFn GroupKeyFunc, opts GroupOptions) ([]GroupReport, error) {
	partitions := make(map[string][]journal.Trade)
	for _, t := range series.Trades() {
		key := keyFn(t)
		partitions[key] = append(partitions[key], t)
	}
	return reduceGroups(ctx, partitions, opts)
}

// GroupByTag groups by tag membership. Unlike GroupBy this does NOT
// partition: a trade carrying n tags appears in n groups, and untagged
// trades appear in none, so per-group totals must not be summed into a
// series total.
func GroupByTag(ctx context.Context, series *journal.Series, opts GroupOptions) ([]GroupReport, error) {
	groups := make(map[string][]journal.Trade)
	for _, t := range series.Trades() {
		for _, tag := range t.Tags {
			groups[tag] = append(groups[tag], t)
		}
	}
	return reduceGroups(ctx, groups, opts)
}

func reduceGroups(ctx context.Context, groups map[string][]journal.Trade, opts GroupOptions) ([]GroupReport, error) {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	reports := make([]GroupReport, 0, len(keys))
	for _, key := range keys {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Source trades were exit-time sorted; per-group order survives
		// the stable partitioning, so no revalidation or resort needed.
		sub := journal.Subset(groups[key])

		report := GroupReport{
			Key:        key,
			TradeCount: sub.Len(),
			Metrics:    ComputeMetrics(sub),
			Streaks:    ComputeStreaks(sub),
		}

		if opts.IncludeRisk {
			risk, err := ComputeRisk(ctx, sub, opts.RiskFreeRate)
			if err != nil {
				return nil, err
			}
			report.Risk = &risk
		}

		reports = append(reports, report)
	}

	return reports, nil
}
