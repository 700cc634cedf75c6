package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/wonny/tradelog/backend/internal/journal"
	"github.com/wonny/tradelog/backend/pkg/logger"
)

// =============================================================================
// Broker Statement Import
// =============================================================================

// timeLayouts are the timestamp formats brokers put in statement
// exports, tried in order
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// StatementImporter parses broker statement HTML exports into trades
// ⭐ SSOT: 거래 내역 HTML 파싱은 여기서만
type StatementImporter struct {
	logger *logger.Logger
}

func NewStatementImporter(log *logger.Logger) *StatementImporter {
	return &StatementImporter{logger: log}
}

// Result summarizes one import pass. Rows that fail to parse are
// skipped and counted, not fatal; a statement usually mixes trade rows
// with subtotal and header rows.
type Result struct {
	Trades  []journal.Trade
	Skipped int
}

// column positions in the statement trade table:
// symbol | side | entry time | exit time | entry price | exit price | qty | pnl | strategy | tags
const minStatementColumns = 8

// Parse reads a statement document and extracts the executed trades
// for one user. Open positions appear with empty exit cells and come
// back with nil exit fields.
func (imp *StatementImporter) Parse(r io.Reader, userID int64) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement HTML: %w", err)
	}

	table := doc.Find("table.trades")
	if table.Length() == 0 {
		// Older exports have a single unnamed table
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("statement contains no trade table")
	}

	result := &Result{}

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minStatementColumns {
			return // header or subtotal row
		}

		trade, err := imp.parseRow(cells, userID)
		if err != nil {
			imp.logger.WithError(err).WithField("row", i).Warn("Skipping unparseable statement row")
			result.Skipped++
			return
		}

		result.Trades = append(result.Trades, trade)
	})

	imp.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"trades":  len(result.Trades),
		"skipped": result.Skipped,
	}).Info("Statement parsed")

	return result, nil
}

func (imp *StatementImporter) parseRow(cells *goquery.Selection, userID int64) (journal.Trade, error) {
	text := func(i int) string { return strings.TrimSpace(cells.Eq(i).Text()) }

	symbol := strings.ToUpper(text(0))
	if symbol == "" {
		return journal.Trade{}, fmt.Errorf("empty symbol")
	}

	side := journal.Side(strings.ToLower(text(1)))
	switch side {
	case "buy":
		side = journal.SideLong
	case "sell":
		side = journal.SideShort
	case journal.SideLong, journal.SideShort:
	default:
		return journal.Trade{}, fmt.Errorf("unknown side %q", text(1))
	}

	entryTime, err := parseStatementTime(text(2))
	if err != nil {
		return journal.Trade{}, fmt.Errorf("entry time: %w", err)
	}

	entryPrice, err := parseStatementDecimal(text(4))
	if err != nil {
		return journal.Trade{}, fmt.Errorf("entry price: %w", err)
	}

	quantity, err := parseStatementDecimal(text(6))
	if err != nil {
		return journal.Trade{}, fmt.Errorf("quantity: %w", err)
	}

	trade := journal.Trade{
		UserID:     userID,
		Symbol:     symbol,
		Side:       side,
		EntryTime:  entryTime,
		EntryPrice: entryPrice,
		Quantity:   quantity.Abs(),
	}

	// Exit cells are empty for open positions
	if exitText := text(3); exitText != "" {
		exitTime, err := parseStatementTime(exitText)
		if err != nil {
			return journal.Trade{}, fmt.Errorf("exit time: %w", err)
		}
		exitPrice, err := parseStatementDecimal(text(5))
		if err != nil {
			return journal.Trade{}, fmt.Errorf("exit price: %w", err)
		}
		pnl, err := parseStatementDecimal(text(7))
		if err != nil {
			return journal.Trade{}, fmt.Errorf("pnl: %w", err)
		}

		trade.ExitTime = &exitTime
		trade.ExitPrice = &exitPrice
		trade.PnL = pnl
	}

	if cells.Length() > 8 {
		trade.Strategy = text(8)
	}
	if cells.Length() > 9 {
		if tags := text(9); tags != "" {
			for _, tag := range strings.Split(tags, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					trade.Tags = append(trade.Tags, tag)
				}
			}
		}
	}

	return trade, nil
}

func parseStatementTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseStatementDecimal handles broker formatting: thousands commas,
// currency symbols, parenthesized negatives
func parseStatementDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "+")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad number %q", s)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
