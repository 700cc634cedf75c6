package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStreaks_AlternatingRuns(t *testing.T) {
	// W W L W W W L L
	series := seriesFromPnLs(t, 10, 20, -5, 5, 5, 5, -10, -10)

	record := ComputeStreaks(series)

	require.Len(t, record.Streaks, 4)
	assert.Equal(t, StreakWin, record.Streaks[0].Type)
	assert.Equal(t, 2, record.Streaks[0].Length)
	assert.Equal(t, StreakLoss, record.Streaks[1].Type)
	assert.Equal(t, 1, record.Streaks[1].Length)
	assert.Equal(t, StreakWin, record.Streaks[2].Type)
	assert.Equal(t, 3, record.Streaks[2].Length)
	assert.Equal(t, StreakLoss, record.Streaks[3].Type)
	assert.Equal(t, 2, record.Streaks[3].Length)

	assert.Equal(t, 3, record.LongestWinStreak)
	assert.Equal(t, 2, record.LongestLossStreak)
	assert.Equal(t, -2, record.CurrentStreak)

	assert.True(t, record.Streaks[0].TotalPnL.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, []int64{4, 5, 6}, record.Streaks[2].TradeIDs)
}

func TestComputeStreaks_BreakevenIsItsOwnSegment(t *testing.T) {
	// W W 0 W -> the flat trade splits the win run instead of extending it
	series := seriesFromPnLs(t, 10, 10, 0, 10)

	record := ComputeStreaks(series)

	require.Len(t, record.Streaks, 3)
	assert.Equal(t, StreakWin, record.Streaks[0].Type)
	assert.Equal(t, 2, record.Streaks[0].Length)
	assert.Equal(t, StreakFlat, record.Streaks[1].Type)
	assert.Equal(t, 1, record.Streaks[1].Length)
	assert.Equal(t, StreakWin, record.Streaks[2].Type)
	assert.Equal(t, 1, record.Streaks[2].Length)

	assert.Equal(t, 2, record.LongestWinStreak)
	assert.Equal(t, 0, record.LongestLossStreak)
	assert.Equal(t, 1, record.CurrentStreak)
}

func TestComputeStreaks_ConsecutiveFlatsNeverMerge(t *testing.T) {
	series := seriesFromPnLs(t, 0, 0, 0)

	record := ComputeStreaks(series)

	require.Len(t, record.Streaks, 3)
	for _, s := range record.Streaks {
		assert.Equal(t, StreakFlat, s.Type)
		assert.Equal(t, 1, s.Length)
	}
	assert.Equal(t, 0, record.CurrentStreak)
}

func TestComputeStreaks_LengthsSumToTradeCount(t *testing.T) {
	cases := [][]float64{
		{},
		{5},
		{0},
		{10, -5, 0, 0, 3, 3, -1, 0, -2, -2, 7},
		{-1, -1, -1, -1},
		{1, 0, -1, 0, 1, 0, -1},
	}

	for _, pnls := range cases {
		record := ComputeStreaks(seriesFromPnLs(t, pnls...))

		total := 0
		for _, s := range record.Streaks {
			total += s.Length
		}
		assert.Equal(t, len(pnls), total, "pnls %v", pnls)
	}
}

func TestComputeStreaks_CurrentStreakSign(t *testing.T) {
	tests := []struct {
		name string
		pnls []float64
		want int
	}{
		{"empty series", nil, 0},
		{"ends on wins", []float64{-5, 10, 10, 10}, 3},
		{"ends on losses", []float64{10, -5, -5}, -2},
		{"ends on flat", []float64{10, 10, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := ComputeStreaks(seriesFromPnLs(t, tt.pnls...))
			assert.Equal(t, tt.want, record.CurrentStreak)
		})
	}
}
