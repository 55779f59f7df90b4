package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const insertTradeQuery = `
	INSERT INTO trade_records (
		trade_id, import_id, symbol, put_call, strike, expiry,
		quantity, premium, commission, strategy, open_date, close_date,
		realized_pl, unrealized_pl, trade_pl, cumulative_pl, code, notes
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10, $11, $12,
		$13, $14, $15, $16, $17, $18
	)
`

const selectTradeColumns = `
	trade_id, import_id, symbol, put_call, strike, expiry,
	quantity, premium, commission, strategy, open_date, close_date,
	realized_pl, unrealized_pl, trade_pl, cumulative_pl, code, notes
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeRecordStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertTradeQuery, tradeArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `SELECT ` + selectTradeColumns + ` FROM trade_records WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetBySymbol retrieves all trades for a symbol, ordered by open date ASC.
func (s *TradeRecordStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.TradeRecord, error) {
	query := `SELECT ` + selectTradeColumns + `
		FROM trade_records
		WHERE symbol = $1
		ORDER BY open_date ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get trades by symbol: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByImportID retrieves all trades from one import, ordered by open date ASC.
func (s *TradeRecordStore) GetByImportID(ctx context.Context, importID string) ([]*domain.TradeRecord, error) {
	query := `SELECT ` + selectTradeColumns + `
		FROM trade_records
		WHERE import_id = $1
		ORDER BY open_date ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, importID)
	if err != nil {
		return nil, fmt.Errorf("get trades by import id: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func tradeArgs(t *domain.TradeRecord) []any {
	return []any{
		t.TradeID, t.ImportID, t.Symbol, string(t.PutCall), t.Strike, nullableTime(t.Expiry),
		t.Quantity, t.Premium, t.Commission, t.Strategy, t.OpenDate, t.CloseDate,
		t.RealizedPL, t.UnrealizedPL, t.TradePL, t.CumulativePL, t.Code, t.Notes,
	}
}

func scanTrade(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord
	var putCall string
	var expiry *time.Time

	err := row.Scan(
		&t.TradeID, &t.ImportID, &t.Symbol, &putCall, &t.Strike, &expiry,
		&t.Quantity, &t.Premium, &t.Commission, &t.Strategy, &t.OpenDate, &t.CloseDate,
		&t.RealizedPL, &t.UnrealizedPL, &t.TradePL, &t.CumulativePL, &t.Code, &t.Notes,
	)
	if err != nil {
		return nil, err
	}

	t.PutCall = domain.PutCall(putCall)
	if expiry != nil {
		t.Expiry = *expiry
	}
	return &t, nil
}

func scanTrades(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	return trades, nil
}

// nullableTime maps the zero time to NULL (equities have no expiry).
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
