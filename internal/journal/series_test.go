package journal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedTrade(id int64, symbol string, entry, exit time.Time, pnl float64) Trade {
	exitPrice := decimal.NewFromInt(110)
	return Trade{
		ID:         id,
		UserID:     1,
		Symbol:     symbol,
		Side:       SideLong,
		EntryTime:  entry,
		ExitTime:   &exit,
		EntryPrice: decimal.NewFromInt(100),
		ExitPrice:  &exitPrice,
		Quantity:   decimal.NewFromInt(10),
		PnL:        decimal.NewFromFloat(pnl),
	}
}

func TestNewSeries_SortsByExitTime(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	trades := []Trade{
		closedTrade(3, "MSFT", base, base.Add(72*time.Hour), 30),
		closedTrade(1, "AAPL", base, base.Add(24*time.Hour), 10),
		closedTrade(2, "TSLA", base, base.Add(48*time.Hour), -20),
	}

	series, err := NewSeries(trades)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())

	assert.Equal(t, int64(1), series.At(0).ID)
	assert.Equal(t, int64(2), series.At(1).ID)
	assert.Equal(t, int64(3), series.At(2).ID)
}

func TestNewSeries_ExcludesOpenTrades(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	open := Trade{
		ID:         9,
		Symbol:     "NVDA",
		Side:       SideLong,
		EntryTime:  base,
		EntryPrice: decimal.NewFromInt(500),
		Quantity:   decimal.NewFromInt(5),
	}

	series, err := NewSeries([]Trade{
		closedTrade(1, "AAPL", base, base.Add(time.Hour), 10),
		open,
	})
	require.NoError(t, err)

	// Open trades are policy-excluded, not errors
	assert.Equal(t, 1, series.Len())
	assert.Equal(t, int64(1), series.At(0).ID)
}

func TestNewSeries_CollectsEveryViolation(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	before := base.Add(-time.Hour)
	exitPrice := decimal.NewFromInt(50)

	bad1 := Trade{
		ID:         1,
		Symbol:     "", // missing
		Side:       SideLong,
		EntryTime:  base,
		EntryPrice: decimal.NewFromInt(-10), // negative
		Quantity:   decimal.NewFromInt(1),
	}
	bad2 := Trade{
		ID:         2,
		Symbol:     "AAPL",
		Side:       Side("sideways"), // invalid enum
		EntryTime:  base,
		ExitTime:   &before, // exits before entry
		EntryPrice: decimal.NewFromInt(10),
		ExitPrice:  &exitPrice,
		Quantity:   decimal.NewFromInt(1),
	}

	_, err := NewSeries([]Trade{bad1, bad2})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// All violations across all trades are reported, not just the first
	assert.Len(t, verr.Issues, 4)

	fields := make(map[string]bool)
	for _, issue := range verr.Issues {
		fields[issue.Field] = true
	}
	assert.True(t, fields["symbol"])
	assert.True(t, fields["entry_price"])
	assert.True(t, fields["side"])
	assert.True(t, fields["exit_time"])
}

func TestNewSeries_ClosedTradeRequiresExitPrice(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	exit := base.Add(time.Hour)

	trade := Trade{
		ID:         1,
		Symbol:     "AAPL",
		Side:       SideShort,
		EntryTime:  base,
		ExitTime:   &exit,
		EntryPrice: decimal.NewFromInt(10),
		Quantity:   decimal.NewFromInt(1),
	}

	_, err := NewSeries([]Trade{trade})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, "exit_price", verr.Issues[0].Field)
}

func TestNewSeries_EmptyInput(t *testing.T) {
	series, err := NewSeries(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, series.Len())
}

func TestTrade_Outcome(t *testing.T) {
	tests := []struct {
		name string
		pnl  float64
		want Outcome
	}{
		{"positive pnl is a win", 12.5, OutcomeWin},
		{"negative pnl is a loss", -0.01, OutcomeLoss},
		{"zero pnl is flat", 0, OutcomeFlat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := Trade{PnL: decimal.NewFromFloat(tt.pnl)}
			assert.Equal(t, tt.want, trade.Outcome())
		})
	}
}

func TestTrade_ExitDay(t *testing.T) {
	exit := time.Date(2024, 3, 15, 23, 45, 0, 0, time.FixedZone("KST", 9*3600))
	trade := Trade{ExitTime: &exit}

	// 23:45 KST = 14:45 UTC, so the bucket is the UTC day
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), trade.ExitDay())

	var open Trade
	assert.True(t, open.ExitDay().IsZero())
}

func TestSeries_Filter(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	series, err := NewSeries([]Trade{
		closedTrade(1, "AAPL", base, base.Add(time.Hour), 10),
		closedTrade(2, "TSLA", base, base.Add(2*time.Hour), -5),
		closedTrade(3, "AAPL", base, base.Add(3*time.Hour), 7),
	})
	require.NoError(t, err)

	apple := series.Filter(func(tr Trade) bool { return tr.Symbol == "AAPL" })
	require.Equal(t, 2, apple.Len())
	assert.Equal(t, int64(1), apple.At(0).ID)
	assert.Equal(t, int64(3), apple.At(1).ID)

	// The original series is untouched
	assert.Equal(t, 3, series.Len())
}
