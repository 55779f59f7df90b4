package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/storage"
)

func pgTestClosed(symbol string, closeDay int, pnl float64) domain.ClosedTradePL {
	return domain.ClosedTradePL{
		Key: domain.InstrumentKey{
			Symbol:  symbol,
			PutCall: domain.PutCallCall,
			Strike:  222.5,
			Expiry:  "2025-03-28",
		},
		Symbol:          symbol,
		OpenDate:        time.Date(2025, time.March, 10, 9, 31, 5, 0, time.UTC),
		CloseDate:       time.Date(2025, time.March, closeDay, 10, 15, 30, 0, time.UTC),
		MatchedQuantity: 1,
		OpenPremium:     2.12,
		ClosePremium:    3.25,
		PnL:             pnl,
		DaysHeld:        closeDay - 10,
		Commissions:     2.23,
		IsWin:           pnl > 0,
	}
}

func TestClosedTradeStore_InsertAndGetByImportID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClosedTradeStore(pool)
	ctx := context.Background()

	closed := []domain.ClosedTradePL{
		pgTestClosed("AAPL", 21, 110.77),
		pgTestClosed("SPY", 24, -20.50),
	}
	require.NoError(t, store.InsertBulk(ctx, "imp-001", closed))

	retrieved, err := store.GetByImportID(ctx, "imp-001")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)

	// Match order must survive the round trip
	assert.Equal(t, "AAPL", retrieved[0].Symbol)
	assert.Equal(t, "SPY", retrieved[1].Symbol)

	first := retrieved[0]
	assert.Equal(t, closed[0].Key, first.Key)
	assert.Equal(t, closed[0].MatchedQuantity, first.MatchedQuantity)
	assert.Equal(t, closed[0].OpenPremium, first.OpenPremium)
	assert.Equal(t, closed[0].ClosePremium, first.ClosePremium)
	assert.Equal(t, closed[0].PnL, first.PnL)
	assert.Equal(t, closed[0].DaysHeld, first.DaysHeld)
	assert.Equal(t, closed[0].Commissions, first.Commissions)
	assert.True(t, first.IsWin)
}

func TestClosedTradeStore_DuplicateImport(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClosedTradeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, "imp-001", []domain.ClosedTradePL{pgTestClosed("AAPL", 21, 1)}))

	err := store.InsertBulk(ctx, "imp-001", []domain.ClosedTradePL{pgTestClosed("SPY", 24, 2)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestClosedTradeStore_GetByImportIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClosedTradeStore(pool)

	_, err := store.GetByImportID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClosedTradeStore_GetBySymbolAcrossImports(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClosedTradeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, "imp-001", []domain.ClosedTradePL{pgTestClosed("AAPL", 25, 1)}))
	require.NoError(t, store.InsertBulk(ctx, "imp-002", []domain.ClosedTradePL{
		pgTestClosed("AAPL", 12, 2),
		pgTestClosed("SPY", 13, 3),
	}))

	result, err := store.GetBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.True(t, result[0].CloseDate.Before(result[1].CloseDate))
}
