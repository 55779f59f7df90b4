package postgres

import (
	"context"
	"fmt"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/storage"
)

// ImportStore implements storage.ImportStore using PostgreSQL.
type ImportStore struct {
	pool *Pool
}

// NewImportStore creates a new ImportStore.
func NewImportStore(pool *Pool) *ImportStore {
	return &ImportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ImportStore = (*ImportStore)(nil)

// Insert adds a new import record. Returns ErrDuplicateKey if import_id exists.
func (s *ImportStore) Insert(ctx context.Context, rec *domain.ImportRecord) error {
	if rec == nil || rec.ImportID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO statement_imports (
			import_id, broker, imported_at, trade_count, error_count,
			closed_count, open_lot_count, success, cumulative_pl
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.ImportID, string(rec.Broker), rec.ImportedAt, rec.TradeCount, rec.ErrorCount,
		rec.ClosedCount, rec.OpenLotCount, rec.Success, rec.CumulativePL,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert import record: %w", err)
	}
	return nil
}

// GetByID retrieves an import by its ID. Returns ErrNotFound if not exists.
func (s *ImportStore) GetByID(ctx context.Context, importID string) (*domain.ImportRecord, error) {
	query := `
		SELECT import_id, broker, imported_at, trade_count, error_count,
		       closed_count, open_lot_count, success, cumulative_pl
		FROM statement_imports
		WHERE import_id = $1
	`

	var rec domain.ImportRecord
	var broker string
	err := s.pool.QueryRow(ctx, query, importID).Scan(
		&rec.ImportID, &broker, &rec.ImportedAt, &rec.TradeCount, &rec.ErrorCount,
		&rec.ClosedCount, &rec.OpenLotCount, &rec.Success, &rec.CumulativePL,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get import by id: %w", err)
	}
	rec.Broker = domain.BrokerIdentity(broker)
	return &rec, nil
}

// GetAll retrieves all imports, ordered by imported_at ASC.
func (s *ImportStore) GetAll(ctx context.Context) ([]*domain.ImportRecord, error) {
	query := `
		SELECT import_id, broker, imported_at, trade_count, error_count,
		       closed_count, open_lot_count, success, cumulative_pl
		FROM statement_imports
		ORDER BY imported_at ASC, import_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all imports: %w", err)
	}
	defer rows.Close()

	var result []*domain.ImportRecord
	for rows.Next() {
		var rec domain.ImportRecord
		var broker string
		err := rows.Scan(
			&rec.ImportID, &broker, &rec.ImportedAt, &rec.TradeCount, &rec.ErrorCount,
			&rec.ClosedCount, &rec.OpenLotCount, &rec.Success, &rec.CumulativePL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan import record: %w", err)
		}
		rec.Broker = domain.BrokerIdentity(broker)
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import records: %w", err)
	}
	return result, nil
}
