package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/storage"
)

// ClosedTradeStore implements storage.ClosedTradeStore using PostgreSQL.
// Rows carry a seq ordinal so the engine's match order survives storage.
type ClosedTradeStore struct {
	pool *Pool
}

// NewClosedTradeStore creates a new ClosedTradeStore.
func NewClosedTradeStore(pool *Pool) *ClosedTradeStore {
	return &ClosedTradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClosedTradeStore = (*ClosedTradeStore)(nil)

const insertClosedQuery = `
	INSERT INTO closed_trades (
		import_id, seq, symbol, put_call, strike, expiry,
		open_date, close_date, matched_quantity,
		open_premium, close_premium, pnl, days_held, commissions, is_win
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9,
		$10, $11, $12, $13, $14, $15
	)
`

const selectClosedColumns = `
	symbol, put_call, strike, expiry,
	open_date, close_date, matched_quantity,
	open_premium, close_premium, pnl, days_held, commissions, is_win
`

// InsertBulk adds one import's matched trades atomically. Returns
// ErrDuplicateKey if the import already has closed trades stored.
func (s *ClosedTradeStore) InsertBulk(ctx context.Context, importID string, closed []domain.ClosedTradePL) error {
	if importID == "" {
		return storage.ErrInvalidInput
	}
	if len(closed) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for seq, c := range closed {
		_, err := tx.Exec(ctx, insertClosedQuery,
			importID, seq, c.Symbol, string(c.Key.PutCall), c.Key.Strike, c.Key.Expiry,
			c.OpenDate, c.CloseDate, c.MatchedQuantity,
			c.OpenPremium, c.ClosePremium, c.PnL, c.DaysHeld, c.Commissions, c.IsWin,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert closed trade: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByImportID retrieves one import's closed trades in match order.
func (s *ClosedTradeStore) GetByImportID(ctx context.Context, importID string) ([]domain.ClosedTradePL, error) {
	query := `SELECT ` + selectClosedColumns + `
		FROM closed_trades
		WHERE import_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, importID)
	if err != nil {
		return nil, fmt.Errorf("get closed trades by import id: %w", err)
	}
	defer rows.Close()

	closed, err := scanClosedTrades(rows)
	if err != nil {
		return nil, err
	}
	if len(closed) == 0 {
		return nil, storage.ErrNotFound
	}
	return closed, nil
}

// GetBySymbol retrieves closed trades for a symbol across all imports,
// ordered by close date ASC.
func (s *ClosedTradeStore) GetBySymbol(ctx context.Context, symbol string) ([]domain.ClosedTradePL, error) {
	query := `SELECT ` + selectClosedColumns + `
		FROM closed_trades
		WHERE symbol = $1
		ORDER BY close_date ASC, import_id ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get closed trades by symbol: %w", err)
	}
	defer rows.Close()

	return scanClosedTrades(rows)
}

func scanClosedTrades(rows pgx.Rows) ([]domain.ClosedTradePL, error) {
	var closed []domain.ClosedTradePL
	for rows.Next() {
		var c domain.ClosedTradePL
		var putCall string
		err := rows.Scan(
			&c.Symbol, &putCall, &c.Key.Strike, &c.Key.Expiry,
			&c.OpenDate, &c.CloseDate, &c.MatchedQuantity,
			&c.OpenPremium, &c.ClosePremium, &c.PnL, &c.DaysHeld, &c.Commissions, &c.IsWin,
		)
		if err != nil {
			return nil, fmt.Errorf("scan closed trade: %w", err)
		}
		c.Key.Symbol = c.Symbol
		c.Key.PutCall = domain.PutCall(putCall)
		closed = append(closed, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closed trades: %w", err)
	}
	return closed, nil
}
