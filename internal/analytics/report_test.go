package analytics

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelog/backend/pkg/logger"
)

func TestAssembler_Assemble(t *testing.T) {
	series := mustSeries(t,
		taggedTrade(1, "AAPL", "swing", 0, 100, "earnings"),
		taggedTrade(2, "TSLA", "scalp", 1, -50),
		taggedTrade(3, "AAPL", "swing", 2, 200),
		taggedTrade(4, "MSFT", "scalp", 3, -25),
	)

	assembler := NewAssembler(0, logger.Nop())

	report, err := assembler.Assemble(context.Background(), 42, series)
	require.NoError(t, err)

	assert.Equal(t, int64(42), report.UserID)
	assert.Equal(t, 4, report.TradeCount)
	assert.False(t, report.GeneratedAt.IsZero())

	// Every section reflects the same snapshot
	assert.Equal(t, 4, report.Metrics.TotalTrades)
	assert.True(t, report.Metrics.TotalPnL.Equal(decimal.NewFromInt(225)))
	assert.Equal(t, 4, report.Risk.TradingDays)
	assert.Len(t, report.Symbols, 3)
	assert.Len(t, report.Strategies, 2)
	assert.Len(t, report.Tags, 1)

	total := 0
	for _, s := range report.Streaks.Streaks {
		total += s.Length
	}
	assert.Equal(t, report.Metrics.TotalTrades, total)
}

func TestAssembler_EmptySeries(t *testing.T) {
	assembler := NewAssembler(DefaultRiskFreeRate, logger.Nop())

	report, err := assembler.Assemble(context.Background(), 7, seriesFromPnLs(t))
	require.NoError(t, err)

	assert.Equal(t, 0, report.TradeCount)
	assert.Equal(t, 0.0, report.Metrics.WinRate)
	assert.Empty(t, report.Symbols)
	assert.Empty(t, report.Tags)
}

func TestAssembler_CancelledContext(t *testing.T) {
	series := seriesFromPnLs(t, 100, -50)
	assembler := NewAssembler(0, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := assembler.Assemble(ctx, 1, series)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssembler_AssembleGroups(t *testing.T) {
	series := mustSeries(t,
		taggedTrade(1, "AAPL", "swing", 0, 100, "gap"),
		taggedTrade(2, "TSLA", "scalp", 1, -50, "gap"),
	)
	assembler := NewAssembler(0, logger.Nop())

	for _, dim := range []string{"symbol", "strategy", "hour", "weekday", "month", "quarter", "tag"} {
		reports, err := assembler.AssembleGroups(context.Background(), series, dim)
		require.NoError(t, err, dim)
		require.NotEmpty(t, reports, dim)
		// Drill-down groups carry risk stats
		assert.NotNil(t, reports[0].Risk, dim)
	}

	_, err := assembler.AssembleGroups(context.Background(), series, "astrology")
	assert.Error(t, err)
}
