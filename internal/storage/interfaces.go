package storage

import (
	"context"

	"statement-pnl-lab/internal/domain"
)

// TradeRecordStore provides access to trade_records storage.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetBySymbol retrieves all trades for a symbol, ordered by open date ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.TradeRecord, error)

	// GetByImportID retrieves all trades from one import, ordered by open date ASC.
	GetByImportID(ctx context.Context, importID string) ([]*domain.TradeRecord, error)
}

// ClosedTradeStore provides access to closed_trades storage. Closed trades
// have no natural key of their own; they are stored per import in match
// order.
type ClosedTradeStore interface {
	// InsertBulk adds one import's matched trades atomically. Returns
	// ErrDuplicateKey if the import already has closed trades stored.
	InsertBulk(ctx context.Context, importID string, closed []domain.ClosedTradePL) error

	// GetByImportID retrieves one import's closed trades in match order.
	GetByImportID(ctx context.Context, importID string) ([]domain.ClosedTradePL, error)

	// GetBySymbol retrieves closed trades for a symbol across all imports,
	// ordered by close date ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]domain.ClosedTradePL, error)
}

// ImportStore provides access to statement_imports storage.
type ImportStore interface {
	// Insert adds a new import record. Returns ErrDuplicateKey if import_id exists.
	Insert(ctx context.Context, rec *domain.ImportRecord) error

	// GetByID retrieves an import by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, importID string) (*domain.ImportRecord, error)

	// GetAll retrieves all imports, ordered by imported_at ASC.
	GetAll(ctx context.Context) ([]*domain.ImportRecord, error)
}
