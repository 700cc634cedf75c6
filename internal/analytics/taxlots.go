package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/tradelog/backend/internal/journal"
)

// =============================================================================
// Tax Lot Analysis
// =============================================================================

// LongTermHoldingDays is the holding-period threshold: strictly more
// than this many days qualifies as long-term. Fixed constant, not a
// per-jurisdiction setting.
const LongTermHoldingDays = 365

// WashSaleWindowDays is the half-width of the wash-sale window around
// a losing exit
const WashSaleWindowDays = 30

// TaxTerm classifies a realized lot's holding period
type TaxTerm string

const (
	TermShort TaxTerm = "short_term"
	TermLong  TaxTerm = "long_term"
)

// WashSaleFlag records one tainted loss and the same-symbol entries
// that taint it
type WashSaleFlag struct {
	LossTradeID            int64           `json:"loss_trade_id"`
	Symbol                 string          `json:"symbol"`
	LossAmount             decimal.Decimal `json:"loss_amount"`
	CandidateRepurchaseIDs []int64         `json:"candidate_repurchase_ids"`
}

// Classification splits a series by holding period and carries the
// wash-sale flags found across the whole series
type Classification struct {
	ShortTerm *journal.Series
	LongTerm  *journal.Series
	WashSales []WashSaleFlag
}

// Classify partitions the full series into short-term and long-term
// holdings and scans every loss for wash-sale candidates: any OTHER
// trade on the same symbol entered within ±WashSaleWindowDays of the
// losing exit, window inclusive on both ends.
func Classify(series *journal.Series) Classification {
	c := Classification{
		ShortTerm: series.Filter(func(t journal.Trade) bool { return classifyTerm(t) == TermShort }),
		LongTerm:  series.Filter(func(t journal.Trade) bool { return classifyTerm(t) == TermLong }),
	}

	entries := entryIndex(series)
	for _, t := range series.Trades() {
		if !t.PnL.IsNegative() {
			continue
		}
		matches := nearbyEntries(entries[t.Symbol], t.ID, t.ExitTime.UTC())
		if len(matches) == 0 {
			continue
		}
		c.WashSales = append(c.WashSales, WashSaleFlag{
			LossTradeID:            t.ID,
			Symbol:                 t.Symbol,
			LossAmount:             t.PnL,
			CandidateRepurchaseIDs: matches,
		})
	}

	return c
}

// TaxLot is one realized lot, the form line item for a single closed
// trade. GainLoss carries the trade's recorded pnl; Proceeds and
// CostBasis are derived from prices and quantity, with the legs
// swapped for shorts.
type TaxLot struct {
	TradeID    int64           `json:"trade_id"`
	Symbol     string          `json:"symbol"`
	AcquiredAt time.Time       `json:"acquired_at"`
	SoldAt     time.Time       `json:"sold_at"`
	Proceeds   decimal.Decimal `json:"proceeds"`
	CostBasis  decimal.Decimal `json:"cost_basis"`
	GainLoss   decimal.Decimal `json:"gain_loss"`
	Term       TaxTerm         `json:"term"`
	WashSale   bool            `json:"wash_sale"`
}

// QuarterSummary aggregates realized results for one calendar quarter
type QuarterSummary struct {
	Quarter  string          `json:"quarter"` // e.g. "2024-Q2"
	Lots     int             `json:"lots"`
	NetGain  decimal.Decimal `json:"net_gain"`
	WashSale int             `json:"wash_sales"`
}

// TaxReport is the full tax-year breakdown. Wash-sale flags are
// advisory: flagged losses stay in the gain totals, nothing is
// disallowed or re-based here.
type TaxReport struct {
	Year          int              `json:"year"`
	Lots          []TaxLot         `json:"lots"`
	ShortTermGain decimal.Decimal  `json:"short_term_gain"`
	LongTermGain  decimal.Decimal  `json:"long_term_gain"`
	NetGain       decimal.Decimal  `json:"net_gain"`
	WashSaleCount int              `json:"wash_sale_count"`
	Quarters      []QuarterSummary `json:"quarters"`
}

// ComputeTaxes builds the tax report for one calendar year (UTC). Lots
// cover trades exiting in that year; wash-sale matching looks at entry
// activity across the whole series, since replacement buys near the
// year boundary still taint a December loss.
func ComputeTaxes(series *journal.Series, year int) TaxReport {
	report := TaxReport{Year: year}

	entries := entryIndex(series)

	for _, t := range series.Trades() {
		soldAt := t.ExitTime.UTC()
		if soldAt.Year() != year {
			continue
		}

		lot := TaxLot{
			TradeID:    t.ID,
			Symbol:     t.Symbol,
			AcquiredAt: t.EntryTime.UTC(),
			SoldAt:     soldAt,
			GainLoss:   t.PnL,
			Term:       classifyTerm(t),
		}

		gross := t.EntryPrice.Mul(t.Quantity)
		exitGross := t.ExitPrice.Mul(t.Quantity)
		if t.Side == journal.SideShort {
			// Short: sells first, buys back at exit
			lot.Proceeds = gross
			lot.CostBasis = exitGross
		} else {
			lot.Proceeds = exitGross
			lot.CostBasis = gross
		}

		if t.PnL.IsNegative() {
			lot.WashSale = len(nearbyEntries(entries[t.Symbol], t.ID, soldAt)) > 0
		}

		report.Lots = append(report.Lots, lot)
	}

	sort.SliceStable(report.Lots, func(i, j int) bool {
		return report.Lots[i].SoldAt.Before(report.Lots[j].SoldAt)
	})

	quarters := make(map[string]*QuarterSummary)
	for _, lot := range report.Lots {
		report.NetGain = report.NetGain.Add(lot.GainLoss)
		if lot.Term == TermLong {
			report.LongTermGain = report.LongTermGain.Add(lot.GainLoss)
		} else {
			report.ShortTermGain = report.ShortTermGain.Add(lot.GainLoss)
		}
		if lot.WashSale {
			report.WashSaleCount++
		}

		key := quarterKey(lot.SoldAt)
		q, ok := quarters[key]
		if !ok {
			q = &QuarterSummary{Quarter: key}
			quarters[key] = q
		}
		q.Lots++
		q.NetGain = q.NetGain.Add(lot.GainLoss)
		if lot.WashSale {
			q.WashSale++
		}
	}

	keys := make([]string, 0, len(quarters))
	for key := range quarters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		report.Quarters = append(report.Quarters, *quarters[key])
	}

	return report
}

// classifyTerm applies the strict holding-period threshold: exactly
// LongTermHoldingDays is still short-term.
func classifyTerm(t journal.Trade) TaxTerm {
	if t.HoldingPeriod() > LongTermHoldingDays*24*time.Hour {
		return TermLong
	}
	return TermShort
}

// symbolEntry is one entry event used for wash-sale matching
type symbolEntry struct {
	tradeID int64
	at      time.Time
}

// entryIndex collects every trade's entry time per symbol, sorted, so
// wash-sale lookups are a binary search instead of a full scan.
func entryIndex(series *journal.Series) map[string][]symbolEntry {
	index := make(map[string][]symbolEntry)
	for _, t := range series.Trades() {
		index[t.Symbol] = append(index[t.Symbol], symbolEntry{tradeID: t.ID, at: t.EntryTime.UTC()})
	}
	for _, entries := range index {
		sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })
	}
	return index
}

// nearbyEntries returns the ids of OTHER trades on the symbol entered
// within the wash-sale window around the losing exit. Entries are
// sorted, so the window is a binary search plus a short scan.
func nearbyEntries(entries []symbolEntry, selfID int64, soldAt time.Time) []int64 {
	windowStart := soldAt.AddDate(0, 0, -WashSaleWindowDays)
	windowEnd := soldAt.AddDate(0, 0, WashSaleWindowDays)

	var matches []int64
	i := sort.Search(len(entries), func(i int) bool {
		return !entries[i].at.Before(windowStart)
	})
	for ; i < len(entries) && !entries[i].at.After(windowEnd); i++ {
		if entries[i].tradeID != selfID {
			matches = append(matches, entries[i].tradeID)
		}
	}
	return matches
}

func quarterKey(at time.Time) string {
	return ByQuarter(journal.Trade{ExitTime: &at})
}
