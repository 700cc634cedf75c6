package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/tradelog/backend/internal/journal"
)

// TradeRepository handles trade persistence
// ⭐ SSOT: 거래 데이터 저장/조회는 여기서만
type TradeRepository struct {
	pool *pgxpool.Pool
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(pool *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{pool: pool}
}

const tradeColumns = `
	id, user_id, symbol, side, entry_time, exit_time,
	entry_price, exit_price, quantity, pnl, strategy, tags
`

// GetClosedByUser retrieves a user's closed trades ordered by exit
// time, the shape the series constructor expects
func (r *TradeRepository) GetClosedByUser(ctx context.Context, userID int64) ([]journal.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM journal.trades
		WHERE user_id = $1 AND exit_time IS NOT NULL
		ORDER BY exit_time ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetClosedByUserAndYear retrieves closed trades exiting in the given
// calendar year (UTC), for tax reporting. Entry activity outside the
// year still matters for wash-sale matching, so the window is padded
// by the matching radius on both sides.
func (r *TradeRepository) GetClosedByUserAndYear(ctx context.Context, userID int64, year, padDays int) ([]journal.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM journal.trades
		WHERE user_id = $1
		  AND exit_time IS NOT NULL
		  AND exit_time >= make_timestamptz($2, 1, 1, 0, 0, 0, 'UTC') - make_interval(days => $4)
		  AND exit_time <  make_timestamptz($3, 1, 1, 0, 0, 0, 'UTC') + make_interval(days => $4)
		ORDER BY exit_time ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, year, year+1, padDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for year %d: %w", year, err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// InsertBatch inserts imported trades in one round trip. Rows that
// collide with an existing id are skipped, so re-importing the same
// statement is harmless.
func (r *TradeRepository) InsertBatch(ctx context.Context, trades []journal.Trade) (int64, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO journal.trades (
			user_id, symbol, side, entry_time, exit_time,
			entry_price, exit_price, quantity, pnl, strategy, tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(query,
			t.UserID, t.Symbol, string(t.Side), t.EntryTime, t.ExitTime,
			t.EntryPrice, t.ExitPrice, t.Quantity, t.PnL, t.Strategy, t.Tags,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range trades {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert trade batch: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	return inserted, nil
}

// ListActiveUserIDs returns every user with at least one closed trade,
// the population the report warm job iterates over
func (r *TradeRepository) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT DISTINCT user_id
		FROM journal.trades
		WHERE exit_time IS NOT NULL
		ORDER BY user_id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active users: %w", err)
	}

	return userIDs, nil
}

func scanTrades(rows pgx.Rows) ([]journal.Trade, error) {
	trades := make([]journal.Trade, 0)

	for rows.Next() {
		var t journal.Trade
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Symbol, &t.Side, &t.EntryTime, &t.ExitTime,
			&t.EntryPrice, &t.ExitPrice, &t.Quantity, &t.PnL, &t.Strategy, &t.Tags,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}

	return trades, nil
}
