package journal

import (
	"fmt"
	"sort"
	"strings"
)

// Series is an ordered, read-only view over a user's closed trades,
// sorted ascending by exit time. Constructed once per computation;
// analyzers share it without copying.
// ⭐ SSOT: 종료 거래 시계열 구성은 여기서만
type Series struct {
	trades []Trade
}

// Issue describes a single validation failure on a trade
type Issue struct {
	TradeID int64  `json:"trade_id"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

// ValidationError reports every offending trade in the input.
// The computation is rejected as a whole; no partial series is built.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "trade validation failed (%d issues)", len(e.Issues))
	for _, issue := range e.Issues {
		fmt.Fprintf(&b, "; trade %d: %s %s", issue.TradeID, issue.Field, issue.Reason)
	}
	return b.String()
}

// NewSeries validates the input and builds a closed-trade series.
// Open trades (nil exit time) are excluded by policy, not rejected.
// Malformed trades fail the whole call with a ValidationError that
// enumerates every violation, never just the first.
func NewSeries(trades []Trade) (*Series, error) {
	var issues []Issue

	closed := make([]Trade, 0, len(trades))
	for _, t := range trades {
		issues = append(issues, validateTrade(t)...)
		if t.Closed() {
			closed = append(closed, t)
		}
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].ExitTime.Before(*closed[j].ExitTime)
	})

	return &Series{trades: closed}, nil
}

// validateTrade checks one trade against the schema invariants
func validateTrade(t Trade) []Issue {
	var issues []Issue

	if t.Symbol == "" {
		issues = append(issues, Issue{TradeID: t.ID, Field: "symbol", Reason: "is required"})
	}

	if t.Side != SideLong && t.Side != SideShort {
		issues = append(issues, Issue{TradeID: t.ID, Field: "side", Reason: fmt.Sprintf("must be long or short, got %q", t.Side)})
	}

	if t.EntryTime.IsZero() {
		issues = append(issues, Issue{TradeID: t.ID, Field: "entry_time", Reason: "is required"})
	}

	if !t.EntryPrice.IsPositive() {
		issues = append(issues, Issue{TradeID: t.ID, Field: "entry_price", Reason: "must be > 0"})
	}

	if !t.Quantity.IsPositive() {
		issues = append(issues, Issue{TradeID: t.ID, Field: "quantity", Reason: "must be > 0"})
	}

	if t.ExitTime != nil {
		if t.ExitTime.Before(t.EntryTime) {
			issues = append(issues, Issue{TradeID: t.ID, Field: "exit_time", Reason: "is before entry_time"})
		}
		if t.ExitPrice == nil {
			issues = append(issues, Issue{TradeID: t.ID, Field: "exit_price", Reason: "is required for closed trades"})
		} else if !t.ExitPrice.IsPositive() {
			issues = append(issues, Issue{TradeID: t.ID, Field: "exit_price", Reason: "must be > 0"})
		}
	}

	return issues
}

// Len returns the number of closed trades in the series
func (s *Series) Len() int {
	return len(s.trades)
}

// Trades returns the underlying ordered slice. Callers must treat it
// as read-only for the lifetime of the computation.
func (s *Series) Trades() []Trade {
	return s.trades
}

// At returns the trade at position i
func (s *Series) At(i int) Trade {
	return s.trades[i]
}

// Filter returns a new series holding the trades matching pred.
// Order is preserved, so the result is still exit-time sorted.
func (s *Series) Filter(pred func(Trade) bool) *Series {
	kept := make([]Trade, 0, len(s.trades))
	for _, t := range s.trades {
		if pred(t) {
			kept = append(kept, t)
		}
	}
	return &Series{trades: kept}
}

// Subset wraps an already exit-time-sorted slice without revalidation,
// used by the group aggregator when partitioning a validated series.
func Subset(trades []Trade) *Series {
	return &Series{trades: trades}
}
