package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelog/backend/internal/journal"
	"github.com/wonny/tradelog/backend/pkg/logger"
)

const sampleStatement = `
<html><body>
<h1>Trade Confirmation Export</h1>
<table class="trades">
  <tr>
    <th>Symbol</th><th>Side</th><th>Opened</th><th>Closed</th>
    <th>Open Px</th><th>Close Px</th><th>Qty</th><th>P/L</th>
    <th>Strategy</th><th>Tags</th>
  </tr>
  <tr>
    <td>aapl</td><td>buy</td>
    <td>2024-03-01 10:15:00</td><td>2024-03-05 14:30:00</td>
    <td>$1,250.50</td><td>$1,300.00</td><td>10</td><td>495.00</td>
    <td>swing</td><td>earnings, gap</td>
  </tr>
  <tr>
    <td>TSLA</td><td>sell</td>
    <td>2024-03-02 09:45:00</td><td>2024-03-02 11:00:00</td>
    <td>200.00</td><td>210.00</td><td>5</td><td>(50.00)</td>
    <td>scalp</td><td></td>
  </tr>
  <tr>
    <td>NVDA</td><td>long</td>
    <td>2024-03-10 13:00:00</td><td></td>
    <td>880.00</td><td></td><td>3</td><td></td>
    <td></td><td></td>
  </tr>
  <tr><td colspan="10">Subtotal: 445.00</td></tr>
</table>
</body></html>
`

func TestStatementImporter_Parse(t *testing.T) {
	imp := NewStatementImporter(logger.Nop())

	result, err := imp.Parse(strings.NewReader(sampleStatement), 42)
	require.NoError(t, err)
	require.Len(t, result.Trades, 3)
	// Header and subtotal rows are structural, not skipped trades
	assert.Equal(t, 0, result.Skipped)

	long := result.Trades[0]
	assert.Equal(t, int64(42), long.UserID)
	assert.Equal(t, "AAPL", long.Symbol)
	assert.Equal(t, journal.SideLong, long.Side)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), long.EntryTime)
	require.NotNil(t, long.ExitTime)
	assert.True(t, long.EntryPrice.Equal(decimal.NewFromFloat(1250.50)), "entry price = %s", long.EntryPrice)
	assert.True(t, long.PnL.Equal(decimal.NewFromInt(495)))
	assert.Equal(t, "swing", long.Strategy)
	assert.Equal(t, []string{"earnings", "gap"}, long.Tags)

	short := result.Trades[1]
	assert.Equal(t, journal.SideShort, short.Side)
	// Parenthesized amounts are losses
	assert.True(t, short.PnL.Equal(decimal.NewFromInt(-50)), "pnl = %s", short.PnL)

	open := result.Trades[2]
	assert.Equal(t, journal.SideLong, open.Side)
	assert.Nil(t, open.ExitTime)
	assert.Nil(t, open.ExitPrice)
	assert.True(t, open.PnL.IsZero())
}

func TestStatementImporter_UnnamedTable(t *testing.T) {
	html := `<html><body><table>
		<tr><td>MSFT</td><td>buy</td>
		<td>2024-01-05</td><td>2024-01-06</td>
		<td>400</td><td>410</td><td>2</td><td>20</td></tr>
	</table></body></html>`

	imp := NewStatementImporter(logger.Nop())

	result, err := imp.Parse(strings.NewReader(html), 1)
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "MSFT", result.Trades[0].Symbol)
	assert.Equal(t, 0, result.Skipped)
}

func TestStatementImporter_NoTable(t *testing.T) {
	imp := NewStatementImporter(logger.Nop())

	_, err := imp.Parse(strings.NewReader("<html><body><p>empty</p></body></html>"), 1)
	assert.Error(t, err)
}

func TestStatementImporter_BadRowsSkipped(t *testing.T) {
	html := `<html><body><table class="trades">
		<tr><td>AAPL</td><td>hedge</td>
		<td>2024-01-05</td><td>2024-01-06</td>
		<td>100</td><td>110</td><td>1</td><td>10</td></tr>
		<tr><td>AAPL</td><td>buy</td>
		<td>not-a-date</td><td>2024-01-06</td>
		<td>100</td><td>110</td><td>1</td><td>10</td></tr>
		<tr><td>TSLA</td><td>buy</td>
		<td>2024-01-05</td><td>2024-01-06</td>
		<td>100</td><td>110</td><td>1</td><td>10</td></tr>
	</table></body></html>`

	imp := NewStatementImporter(logger.Nop())

	result, err := imp.Parse(strings.NewReader(html), 1)
	require.NoError(t, err)
	assert.Len(t, result.Trades, 1)
	assert.Equal(t, 2, result.Skipped)
}

func TestParseStatementDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,234.56", 1234.56},
		{"$99.90", 99.9},
		{"(12.50)", -12.5},
		{"+3", 3},
	}

	for _, tt := range tests {
		d, err := parseStatementDecimal(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, d.Equal(decimal.NewFromFloat(tt.want)), "%s -> %s", tt.in, d)
	}

	_, err := parseStatementDecimal("n/a")
	assert.Error(t, err)
}
