package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/wonny/tradelog/backend/internal/journal"
)

// =============================================================================
// Risk Metrics
// =============================================================================

// TradingDaysPerYear is the fixed annualization factor
const TradingDaysPerYear = 252

// DefaultRiskFreeRate is the annual risk-free rate used when the caller
// does not supply one
const DefaultRiskFreeRate = 0.02

// RiskSnapshot holds return-series risk statistics for one trade series.
// All VaR/CVaR and drawdown figures are loss-positive magnitudes
// (VaR95 = 120 means "a daily loss of 120 or worse on the worst 5% of
// days"). Degenerate inputs produce the documented zero sentinels.
type RiskSnapshot struct {
	TradingDays             int     `json:"trading_days"`
	Volatility              float64 `json:"volatility"`
	DownsideDeviation       float64 `json:"downside_deviation"`
	VaR95                   float64 `json:"var_95"`
	VaR99                   float64 `json:"var_99"`
	CVaR95                  float64 `json:"cvar_95"`
	CVaR99                  float64 `json:"cvar_99"`
	MaxDrawdown             float64 `json:"max_drawdown"`
	MaxDrawdownDurationDays int     `json:"max_drawdown_duration_days"`
	AnnualizedReturn        float64 `json:"annualized_return"`
	SharpeRatio             float64 `json:"sharpe_ratio"`
	SortinoRatio            float64 `json:"sortino_ratio"`
	CalmarRatio             float64 `json:"calmar_ratio"`
}

// DailyReturn is one observation of the daily realized-pnl series
type DailyReturn struct {
	Day time.Time `json:"day"`
	PnL float64   `json:"pnl"`
}

// DailyReturns buckets realized pnl by the UTC calendar day of the exit,
// one observation per trading day, ascending. Days with no closed trades
// are omitted, not zero-filled; annualized figures therefore reflect
// active days only.
func DailyReturns(series *journal.Series) []DailyReturn {
	buckets := make(map[time.Time]float64)
	for _, t := range series.Trades() {
		day := t.ExitDay()
		pnl, _ := t.PnL.Float64()
		buckets[day] += pnl
	}

	days := make([]time.Time, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	returns := make([]DailyReturn, 0, len(days))
	for _, day := range days {
		returns = append(returns, DailyReturn{Day: day, PnL: buckets[day]})
	}
	return returns
}

// ComputeRisk calculates the risk snapshot from the series' daily pnl.
// riskFreeRate is annual (e.g. 0.02); pass DefaultRiskFreeRate when in
// doubt. The context is checked between day buckets so multi-year
// histories can be cancelled cooperatively.
func ComputeRisk(ctx context.Context, series *journal.Series, riskFreeRate float64) (RiskSnapshot, error) {
	snapshot := RiskSnapshot{}

	daily := DailyReturns(series)
	snapshot.TradingDays = len(daily)
	if len(daily) == 0 {
		return snapshot, nil
	}

	returns := make([]float64, len(daily))
	for i, d := range daily {
		returns[i] = d.PnL
	}

	sqrtAnnual := math.Sqrt(TradingDaysPerYear)
	snapshot.AnnualizedReturn = mean(returns) * TradingDaysPerYear

	// Volatility (annualized)
	dailyStdDev := stdDev(returns)
	snapshot.Volatility = dailyStdDev * sqrtAnnual

	// Sharpe: annualized mean excess return over volatility.
	// 0 with fewer than 2 observations or zero variance.
	dailyRiskFree := riskFreeRate / TradingDaysPerYear
	if len(returns) >= 2 && dailyStdDev > 0 {
		excess := make([]float64, len(returns))
		for i, r := range returns {
			excess[i] = r - dailyRiskFree
		}
		snapshot.SharpeRatio = sqrtAnnual * mean(excess) / dailyStdDev

		// Sortino: same numerator, downside deviation denominator.
		// 0 when no negative-return days exist.
		var downside []float64
		for _, r := range returns {
			if r < 0 {
				downside = append(downside, r)
			}
		}
		downsideStdDev := stdDev(downside)
		snapshot.DownsideDeviation = downsideStdDev * sqrtAnnual
		if downsideStdDev > 0 {
			snapshot.SortinoRatio = sqrtAnnual * mean(excess) / downsideStdDev
		}
	}

	// VaR/CVaR over the daily distribution (loss-positive)
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	snapshot.VaR95, snapshot.CVaR95 = historicalVaR(sorted, 5)
	snapshot.VaR99, snapshot.CVaR99 = historicalVaR(sorted, 1)

	// Drawdown over the cumulative pnl curve
	maxDD, duration, err := drawdownStats(ctx, daily)
	if err != nil {
		return RiskSnapshot{}, err
	}
	snapshot.MaxDrawdown = maxDD
	snapshot.MaxDrawdownDurationDays = duration

	// Calmar: annualized return over drawdown magnitude, 0 when flat
	if snapshot.MaxDrawdown > 0 {
		snapshot.CalmarRatio = snapshot.AnnualizedReturn / snapshot.MaxDrawdown
	}

	return snapshot, nil
}

// historicalVaR returns the loss-positive VaR at the given lower-tail
// percentile (5 for 95% confidence, 1 for 99%) plus the matching CVaR,
// the mean of all returns at or below the VaR threshold.
func historicalVaR(sorted []float64, pct float64) (varValue, cvarValue float64) {
	if len(sorted) == 0 {
		return 0, 0
	}

	threshold := percentile(sorted, pct)
	if threshold < 0 {
		varValue = -threshold
	}

	var sum float64
	var count int
	for _, r := range sorted {
		if r > threshold {
			break // sorted ascending; tail is a prefix
		}
		sum += r
		count++
	}
	if count == 0 {
		return varValue, 0
	}

	if avg := sum / float64(count); avg < 0 {
		cvarValue = -avg
	}
	return varValue, cvarValue
}

// drawdownStats walks the cumulative pnl curve tracking the running
// peak. The relative drawdown (cum-peak)/peak is undefined while the
// peak is <= 0; those points are skipped explicitly rather than divided
// through, and they neither start nor extend an underwater run.
func drawdownStats(ctx context.Context, daily []DailyReturn) (maxDrawdown float64, durationDays int, err error) {
	var (
		cum      float64
		peak     float64
		worst    float64 // most negative relative drawdown
		run      int     // current consecutive underwater days
		firstSet bool
	)

	for _, d := range daily {
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		default:
		}

		cum += d.PnL
		if !firstSet || cum > peak {
			peak = cum
			firstSet = true
		}

		if peak <= 0 {
			// Undefined ratio: skipped data point
			run = 0
			continue
		}

		dd := (cum - peak) / peak
		if dd < worst {
			worst = dd
		}

		if dd < 0 {
			run++
			if run > durationDays {
				durationDays = run
			}
		} else {
			run = 0
		}
	}

	return -worst, durationDays, nil
}

// =============================================================================
// 통계 유틸리티
// =============================================================================

// mean returns the arithmetic mean, 0 for an empty slice
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev returns the sample standard deviation, 0 below 2 observations
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - m
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// percentile returns the p-th percentile (0..100) of an ascending-sorted
// slice using linear interpolation between order statistics. Fixed
// interpolation mode; the VaR tests pin exact values against it.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
