package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/tradelog/backend/internal/journal"
)

// =============================================================================
// Streak Analysis
// =============================================================================

// StreakType classifies a run of consecutive trade outcomes
type StreakType string

const (
	StreakWin  StreakType = "win"
	StreakLoss StreakType = "loss"
	StreakFlat StreakType = "flat" // single breakeven trade, never extends
)

// Streak is one closed run of consecutive identical outcomes
type Streak struct {
	Type     StreakType      `json:"type"`
	Length   int             `json:"length"`
	TotalPnL decimal.Decimal `json:"total_pnl"`
	TradeIDs []int64         `json:"trade_ids"`
}

// StreakRecord holds the ordered streak list and derived extremes.
// CurrentStreak is signed: +n = n consecutive wins at the end of the
// series, -n = n consecutive losses, 0 = empty series or trailing flat.
type StreakRecord struct {
	Streaks           []Streak `json:"streaks"`
	LongestWinStreak  int      `json:"longest_win_streak"`
	LongestLossStreak int      `json:"longest_loss_streak"`
	CurrentStreak     int      `json:"current_streak"`
}

// ComputeStreaks walks the time-ordered outcomes with a three-state
// machine (no streak / in win streak / in loss streak). A breakeven
// trade closes the running streak and becomes its own flat segment of
// length one, so that the segment lengths always sum to the trade count.
func ComputeStreaks(series *journal.Series) StreakRecord {
	record := StreakRecord{}

	var current *Streak

	flush := func() {
		if current == nil {
			return
		}
		record.Streaks = append(record.Streaks, *current)

		switch current.Type {
		case StreakWin:
			if current.Length > record.LongestWinStreak {
				record.LongestWinStreak = current.Length
			}
		case StreakLoss:
			if current.Length > record.LongestLossStreak {
				record.LongestLossStreak = current.Length
			}
		}
		current = nil
	}

	for _, t := range series.Trades() {
		switch t.Outcome() {
		case journal.OutcomeWin:
			if current == nil || current.Type != StreakWin {
				flush()
				current = &Streak{Type: StreakWin}
			}
		case journal.OutcomeLoss:
			if current == nil || current.Type != StreakLoss {
				flush()
				current = &Streak{Type: StreakLoss}
			}
		default:
			// breakeven: terminate the prior streak, record a flat segment
			flush()
			current = &Streak{Type: StreakFlat}
		}

		current.Length++
		current.TotalPnL = current.TotalPnL.Add(t.PnL)
		current.TradeIDs = append(current.TradeIDs, t.ID)

		if current.Type == StreakFlat {
			flush()
		}
	}
	flush()

	if n := len(record.Streaks); n > 0 {
		last := record.Streaks[n-1]
		switch last.Type {
		case StreakWin:
			record.CurrentStreak = last.Length
		case StreakLoss:
			record.CurrentStreak = -last.Length
		}
	}

	return record
}
