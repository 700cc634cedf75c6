package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelog/backend/internal/journal"
)

func taxTrade(id int64, symbol string, side journal.Side, entry, exit time.Time, entryPrice, exitPrice, qty, pnl float64) journal.Trade {
	ep := decimal.NewFromFloat(exitPrice)
	return journal.Trade{
		ID:         id,
		UserID:     1,
		Symbol:     symbol,
		Side:       side,
		EntryTime:  entry,
		ExitTime:   &exit,
		EntryPrice: decimal.NewFromFloat(entryPrice),
		ExitPrice:  &ep,
		Quantity:   decimal.NewFromFloat(qty),
		PnL:        decimal.NewFromFloat(pnl),
	}
}

func TestComputeTaxes_TermClassification(t *testing.T) {
	entry := time.Date(2023, 1, 10, 10, 0, 0, 0, time.UTC)

	shortHold := taxTrade(1, "AAPL", journal.SideLong,
		entry, entry.Add(365*24*time.Hour), 100, 110, 10, 100)
	longHold := taxTrade(2, "MSFT", journal.SideLong,
		entry, entry.Add(366*24*time.Hour), 100, 120, 10, 200)

	report := ComputeTaxes(mustSeries(t, shortHold, longHold), 2024)
	require.Len(t, report.Lots, 2)

	// Exactly 365 days is still short-term; the threshold is strict
	assert.Equal(t, TermShort, report.Lots[0].Term)
	assert.Equal(t, TermLong, report.Lots[1].Term)

	assert.True(t, report.ShortTermGain.Equal(decimal.NewFromInt(100)))
	assert.True(t, report.LongTermGain.Equal(decimal.NewFromInt(200)))
	assert.True(t, report.NetGain.Equal(decimal.NewFromInt(300)))
}

func TestComputeTaxes_FiltersByYear(t *testing.T) {
	entry := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)

	in2023 := taxTrade(1, "AAPL", journal.SideLong, entry, entry.Add(24*time.Hour), 100, 110, 1, 10)
	in2024 := taxTrade(2, "AAPL", journal.SideLong,
		entry.AddDate(1, 0, 0), entry.AddDate(1, 0, 1), 100, 110, 1, 10)

	report := ComputeTaxes(mustSeries(t, in2023, in2024), 2024)
	require.Len(t, report.Lots, 1)
	assert.Equal(t, int64(2), report.Lots[0].TradeID)
	assert.Equal(t, 2024, report.Year)
}

func TestComputeTaxes_WashSaleWindow(t *testing.T) {
	exit := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	loss := taxTrade(1, "AAPL", journal.SideLong,
		exit.AddDate(0, 0, -5), exit, 100, 90, 10, -100)

	t.Run("re-entry 10 days after the loss is flagged", func(t *testing.T) {
		reentry := taxTrade(2, "AAPL", journal.SideLong,
			exit.AddDate(0, 0, 10), exit.AddDate(0, 0, 20), 90, 95, 10, 50)

		report := ComputeTaxes(mustSeries(t, loss, reentry), 2024)
		require.Len(t, report.Lots, 2)
		assert.True(t, report.Lots[0].WashSale)
		assert.Equal(t, 1, report.WashSaleCount)
	})

	t.Run("re-entry 50 days after the loss is clean", func(t *testing.T) {
		reentry := taxTrade(2, "AAPL", journal.SideLong,
			exit.AddDate(0, 0, 50), exit.AddDate(0, 0, 60), 90, 95, 10, 50)

		report := ComputeTaxes(mustSeries(t, loss, reentry), 2024)
		require.Len(t, report.Lots, 2)
		assert.False(t, report.Lots[0].WashSale)
		assert.Equal(t, 0, report.WashSaleCount)
	})

	t.Run("entry before the loss also taints it", func(t *testing.T) {
		prior := taxTrade(2, "AAPL", journal.SideLong,
			exit.AddDate(0, 0, -20), exit.AddDate(0, 0, -18), 100, 101, 5, 5)

		report := ComputeTaxes(mustSeries(t, loss, prior), 2024)
		assert.True(t, report.Lots[len(report.Lots)-1].WashSale)
	})

	t.Run("different symbol never matches", func(t *testing.T) {
		other := taxTrade(2, "MSFT", journal.SideLong,
			exit.AddDate(0, 0, 5), exit.AddDate(0, 0, 6), 90, 95, 10, 50)

		report := ComputeTaxes(mustSeries(t, loss, other), 2024)
		assert.False(t, report.Lots[0].WashSale)
	})

	t.Run("winning trades are never flagged", func(t *testing.T) {
		win := taxTrade(1, "AAPL", journal.SideLong,
			exit.AddDate(0, 0, -5), exit, 100, 110, 10, 100)
		reentry := taxTrade(2, "AAPL", journal.SideLong,
			exit.AddDate(0, 0, 3), exit.AddDate(0, 0, 4), 110, 111, 10, 10)

		report := ComputeTaxes(mustSeries(t, win, reentry), 2024)
		assert.False(t, report.Lots[0].WashSale)
	})
}

func TestClassify_PartitionsAndFlags(t *testing.T) {
	entry := time.Date(2022, 1, 10, 10, 0, 0, 0, time.UTC)

	longHold := taxTrade(1, "MSFT", journal.SideLong,
		entry, entry.AddDate(2, 0, 0), 100, 150, 10, 500)
	loss := taxTrade(2, "AAPL", journal.SideLong,
		entry.AddDate(2, 0, 0), entry.AddDate(2, 0, 5), 100, 90, 10, -100)
	reentry := taxTrade(3, "AAPL", journal.SideLong,
		entry.AddDate(2, 0, 20), entry.AddDate(2, 0, 25), 90, 95, 10, 50)

	c := Classify(mustSeries(t, longHold, loss, reentry))

	assert.Equal(t, 1, c.LongTerm.Len())
	assert.Equal(t, 2, c.ShortTerm.Len())
	assert.Equal(t, 3, c.LongTerm.Len()+c.ShortTerm.Len())

	require.Len(t, c.WashSales, 1)
	flag := c.WashSales[0]
	assert.Equal(t, int64(2), flag.LossTradeID)
	assert.Equal(t, "AAPL", flag.Symbol)
	assert.True(t, flag.LossAmount.Equal(decimal.NewFromInt(-100)))
	assert.Equal(t, []int64{3}, flag.CandidateRepurchaseIDs)
}

func TestComputeTaxes_LotLegs(t *testing.T) {
	entry := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	long := taxTrade(1, "AAPL", journal.SideLong, entry, entry.Add(time.Hour), 100, 110, 10, 100)
	short := taxTrade(2, "TSLA", journal.SideShort, entry, entry.Add(2*time.Hour), 200, 180, 5, 100)

	report := ComputeTaxes(mustSeries(t, long, short), 2024)
	require.Len(t, report.Lots, 2)

	assert.True(t, report.Lots[0].Proceeds.Equal(decimal.NewFromInt(1100)))
	assert.True(t, report.Lots[0].CostBasis.Equal(decimal.NewFromInt(1000)))

	// Short legs are swapped: proceeds at entry, basis at cover
	assert.True(t, report.Lots[1].Proceeds.Equal(decimal.NewFromInt(1000)))
	assert.True(t, report.Lots[1].CostBasis.Equal(decimal.NewFromInt(900)))
}

func TestComputeTaxes_QuarterlySummary(t *testing.T) {
	q1 := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	q3 := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

	report := ComputeTaxes(mustSeries(t,
		taxTrade(1, "AAPL", journal.SideLong, q1, q1.Add(time.Hour), 100, 110, 1, 10),
		taxTrade(2, "AAPL", journal.SideLong, q1.AddDate(0, 0, 1), q1.AddDate(0, 0, 2), 100, 95, 1, -5),
		taxTrade(3, "TSLA", journal.SideLong, q3, q3.Add(time.Hour), 100, 130, 1, 30),
	), 2024)

	require.Len(t, report.Quarters, 2)

	assert.Equal(t, "2024-Q1", report.Quarters[0].Quarter)
	assert.Equal(t, 2, report.Quarters[0].Lots)
	assert.True(t, report.Quarters[0].NetGain.Equal(decimal.NewFromInt(5)))

	assert.Equal(t, "2024-Q3", report.Quarters[1].Quarter)
	assert.Equal(t, 1, report.Quarters[1].Lots)
	assert.True(t, report.Quarters[1].NetGain.Equal(decimal.NewFromInt(30)))
}

func TestComputeTaxes_EmptyYear(t *testing.T) {
	report := ComputeTaxes(mustSeries(t), 2024)

	assert.Empty(t, report.Lots)
	assert.Empty(t, report.Quarters)
	assert.True(t, report.NetGain.IsZero())
}
