package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side indicates trade direction
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Outcome classifies a closed trade by realized PnL
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeFlat Outcome = "flat" // realized PnL exactly zero
)

// Trade represents a single journaled trade
// ⭐ SSOT: 거래 레코드 구조는 여기서만 정의
// The engine never mutates a Trade and never recomputes PnL from prices;
// the caller-supplied realized PnL is authoritative.
type Trade struct {
	ID         int64            `json:"id"`
	UserID     int64            `json:"user_id"`
	Symbol     string           `json:"symbol"`
	Side       Side             `json:"side"`
	EntryTime  time.Time        `json:"entry_time"`
	ExitTime   *time.Time       `json:"exit_time,omitempty"` // nil = still open
	EntryPrice decimal.Decimal  `json:"entry_price"`
	ExitPrice  *decimal.Decimal `json:"exit_price,omitempty"`
	Quantity   decimal.Decimal  `json:"quantity"`
	PnL        decimal.Decimal  `json:"pnl"`
	Strategy   string           `json:"strategy,omitempty"` // empty = unassigned
	Tags       []string         `json:"tags,omitempty"`
}

// Closed reports whether the trade has been exited
func (t Trade) Closed() bool {
	return t.ExitTime != nil
}

// Outcome classifies the trade by the sign of its realized PnL
func (t Trade) Outcome() Outcome {
	switch t.PnL.Sign() {
	case 1:
		return OutcomeWin
	case -1:
		return OutcomeLoss
	default:
		return OutcomeFlat
	}
}

// HoldingPeriod returns exit - entry; zero for open trades
func (t Trade) HoldingPeriod() time.Duration {
	if t.ExitTime == nil {
		return 0
	}
	return t.ExitTime.Sub(t.EntryTime)
}

// ExitDay returns the UTC calendar day of the exit, used for daily
// return bucketing. Zero time for open trades.
func (t Trade) ExitDay() time.Time {
	if t.ExitTime == nil {
		return time.Time{}
	}
	y, m, d := t.ExitTime.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// HasTag reports whether the trade carries the given tag
func (t Trade) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}
