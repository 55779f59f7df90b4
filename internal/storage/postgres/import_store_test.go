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

func TestImportStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewImportStore(pool)
	ctx := context.Background()

	rec := &domain.ImportRecord{
		ImportID:     "imp-001",
		Broker:       domain.BrokerIBKR,
		ImportedAt:   time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC),
		TradeCount:   4,
		ErrorCount:   1,
		ClosedCount:  2,
		OpenLotCount: 1,
		Success:      false,
		CumulativePL: ptr(1629.822617),
	}
	require.NoError(t, store.Insert(ctx, rec))

	retrieved, err := store.GetByID(ctx, "imp-001")
	require.NoError(t, err)

	assert.Equal(t, rec.Broker, retrieved.Broker)
	assert.True(t, rec.ImportedAt.Equal(retrieved.ImportedAt))
	assert.Equal(t, rec.TradeCount, retrieved.TradeCount)
	assert.Equal(t, rec.ErrorCount, retrieved.ErrorCount)
	assert.Equal(t, rec.ClosedCount, retrieved.ClosedCount)
	assert.Equal(t, rec.OpenLotCount, retrieved.OpenLotCount)
	assert.Equal(t, rec.Success, retrieved.Success)
	require.NotNil(t, retrieved.CumulativePL)
	assert.Equal(t, *rec.CumulativePL, *retrieved.CumulativePL)
}

func TestImportStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewImportStore(pool)
	ctx := context.Background()

	rec := &domain.ImportRecord{ImportID: "imp-dup", Broker: domain.BrokerIBKR, ImportedAt: time.Now().UTC()}
	require.NoError(t, store.Insert(ctx, rec))

	assert.ErrorIs(t, store.Insert(ctx, rec), storage.ErrDuplicateKey)
}

func TestImportStore_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewImportStore(pool)
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2025, time.April, d, 0, 0, 0, 0, time.UTC)
	}
	require.NoError(t, store.Insert(ctx, &domain.ImportRecord{ImportID: "imp-2", Broker: domain.BrokerIBKR, ImportedAt: day(9)}))
	require.NoError(t, store.Insert(ctx, &domain.ImportRecord{ImportID: "imp-1", Broker: domain.BrokerTastytrade, ImportedAt: day(2)}))

	result, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "imp-1", result[0].ImportID)
	assert.Equal(t, "imp-2", result[1].ImportID)
}

func TestImportStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewImportStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
