package clickhouse

import (
	"context"
	"fmt"
	"time"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/storage"
)

// ClosedTradeStore implements storage.ClosedTradeStore using ClickHouse.
// MergeTree does not enforce uniqueness, so the duplicate-import check is
// an explicit count query before the batch insert.
type ClosedTradeStore struct {
	conn *Conn
}

// NewClosedTradeStore creates a new ClosedTradeStore.
func NewClosedTradeStore(conn *Conn) *ClosedTradeStore {
	return &ClosedTradeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ClosedTradeStore = (*ClosedTradeStore)(nil)

// InsertBulk adds one import's matched trades as a single batch. Returns
// ErrDuplicateKey if the import already has closed trades stored.
func (s *ClosedTradeStore) InsertBulk(ctx context.Context, importID string, closed []domain.ClosedTradePL) error {
	if importID == "" {
		return storage.ErrInvalidInput
	}
	if len(closed) == 0 {
		return nil
	}

	exists, err := s.importExists(ctx, importID)
	if err != nil {
		return fmt.Errorf("check import exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO closed_trades (
			import_id, seq, symbol, put_call, strike, expiry,
			open_date, close_date, matched_quantity,
			open_premium, close_premium, pnl, days_held, commissions, is_win
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for seq, c := range closed {
		err = batch.Append(
			importID, uint32(seq), c.Symbol, string(c.Key.PutCall), c.Key.Strike, c.Key.Expiry,
			c.OpenDate, c.CloseDate, c.MatchedQuantity,
			c.OpenPremium, c.ClosePremium, c.PnL, int32(c.DaysHeld), c.Commissions, boolToUInt8(c.IsWin),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByImportID retrieves one import's closed trades in match order.
func (s *ClosedTradeStore) GetByImportID(ctx context.Context, importID string) ([]domain.ClosedTradePL, error) {
	query := `
		SELECT symbol, put_call, strike, expiry,
		       open_date, close_date, matched_quantity,
		       open_premium, close_premium, pnl, days_held, commissions, is_win
		FROM closed_trades
		WHERE import_id = ?
		ORDER BY seq ASC
	`

	closed, err := s.queryClosed(ctx, query, importID)
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
	query := `
		SELECT symbol, put_call, strike, expiry,
		       open_date, close_date, matched_quantity,
		       open_premium, close_premium, pnl, days_held, commissions, is_win
		FROM closed_trades
		WHERE symbol = ?
		ORDER BY close_date ASC, import_id ASC, seq ASC
	`
	return s.queryClosed(ctx, query, symbol)
}

func (s *ClosedTradeStore) queryClosed(ctx context.Context, query string, arg any) ([]domain.ClosedTradePL, error) {
	rows, err := s.conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query closed trades: %w", err)
	}
	defer rows.Close()

	var closed []domain.ClosedTradePL
	for rows.Next() {
		var c domain.ClosedTradePL
		var putCall string
		var openDate, closeDate time.Time
		var daysHeld int32
		var isWin uint8
		err := rows.Scan(
			&c.Symbol, &putCall, &c.Key.Strike, &c.Key.Expiry,
			&openDate, &closeDate, &c.MatchedQuantity,
			&c.OpenPremium, &c.ClosePremium, &c.PnL, &daysHeld, &c.Commissions, &isWin,
		)
		if err != nil {
			return nil, fmt.Errorf("scan closed trade: %w", err)
		}
		c.Key.Symbol = c.Symbol
		c.Key.PutCall = domain.PutCall(putCall)
		c.OpenDate = openDate
		c.CloseDate = closeDate
		c.DaysHeld = int(daysHeld)
		c.IsWin = isWin != 0
		closed = append(closed, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closed trades: %w", err)
	}
	return closed, nil
}

func (s *ClosedTradeStore) importExists(ctx context.Context, importID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		"SELECT count() FROM closed_trades WHERE import_id = ?", importID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
