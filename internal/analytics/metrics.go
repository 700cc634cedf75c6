package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/tradelog/backend/internal/journal"
)

// =============================================================================
// Performance Metrics
// =============================================================================

// MetricsSnapshot holds the scalar performance statistics for one series.
// Recomputed fresh on every call; the engine never caches it.
// Degenerate cases return the documented zero sentinels, never NaN/Inf:
// win_rate = 0 on an empty series, profit_factor = 0 when there are no
// losing trades (deliberate policy; callers cannot distinguish this from
// a genuinely zero profit factor).
type MetricsSnapshot struct {
	TotalTrades     int             `json:"total_trades"`
	WinningTrades   int             `json:"winning_trades"`
	LosingTrades    int             `json:"losing_trades"`
	BreakevenTrades int             `json:"breakeven_trades"`
	WinRate         float64         `json:"win_rate"` // percent, 0..100
	ProfitFactor    float64         `json:"profit_factor"`
	Expectancy      decimal.Decimal `json:"expectancy"`
	AvgWin          decimal.Decimal `json:"avg_win"`
	AvgLoss         decimal.Decimal `json:"avg_loss"`
	BestTrade       decimal.Decimal `json:"best_trade"`
	WorstTrade      decimal.Decimal `json:"worst_trade"`
	TotalPnL        decimal.Decimal `json:"total_pnl"`
}

// ComputeMetrics calculates the full snapshot in one pass over the series.
// Pure function of its input; safe to call concurrently.
func ComputeMetrics(series *journal.Series) MetricsSnapshot {
	snapshot := MetricsSnapshot{
		TotalTrades: series.Len(),
	}

	var (
		grossProfit = decimal.Zero
		grossLoss   = decimal.Zero // kept negative
	)

	for i, t := range series.Trades() {
		snapshot.TotalPnL = snapshot.TotalPnL.Add(t.PnL)

		switch t.Outcome() {
		case journal.OutcomeWin:
			snapshot.WinningTrades++
			grossProfit = grossProfit.Add(t.PnL)
		case journal.OutcomeLoss:
			snapshot.LosingTrades++
			grossLoss = grossLoss.Add(t.PnL)
		default:
			snapshot.BreakevenTrades++
		}

		if i == 0 {
			snapshot.BestTrade = t.PnL
			snapshot.WorstTrade = t.PnL
			continue
		}
		if t.PnL.GreaterThan(snapshot.BestTrade) {
			snapshot.BestTrade = t.PnL
		}
		if t.PnL.LessThan(snapshot.WorstTrade) {
			snapshot.WorstTrade = t.PnL
		}
	}

	if snapshot.TotalTrades == 0 {
		return snapshot
	}

	snapshot.WinRate = float64(snapshot.WinningTrades) / float64(snapshot.TotalTrades) * 100

	if snapshot.WinningTrades > 0 {
		snapshot.AvgWin = grossProfit.DivRound(decimal.NewFromInt(int64(snapshot.WinningTrades)), 8)
	}
	if snapshot.LosingTrades > 0 {
		snapshot.AvgLoss = grossLoss.DivRound(decimal.NewFromInt(int64(snapshot.LosingTrades)), 8)
	}

	// profit_factor = gross profit / |gross loss|, 0 when no losses
	if snapshot.LosingTrades > 0 && !grossLoss.IsZero() {
		snapshot.ProfitFactor, _ = grossProfit.Div(grossLoss.Abs()).Float64()
	}

	// expectancy = avg_win * p(win) + avg_loss * p(not win)
	pWin := decimal.NewFromFloat(snapshot.WinRate / 100)
	pRest := decimal.NewFromInt(1).Sub(pWin)
	snapshot.Expectancy = snapshot.AvgWin.Mul(pWin).Add(snapshot.AvgLoss.Mul(pRest))

	return snapshot
}
