package memory

import (
	"context"
	"sort"
	"sync"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/storage"
)

// ClosedTradeStore is an in-memory implementation of storage.ClosedTradeStore.
type ClosedTradeStore struct {
	mu   sync.RWMutex
	data map[string][]domain.ClosedTradePL // keyed by import_id, match order
}

// NewClosedTradeStore creates a new in-memory closed trade store.
func NewClosedTradeStore() *ClosedTradeStore {
	return &ClosedTradeStore{
		data: make(map[string][]domain.ClosedTradePL),
	}
}

// InsertBulk adds one import's matched trades atomically. Returns
// ErrDuplicateKey if the import already has closed trades stored.
func (s *ClosedTradeStore) InsertBulk(_ context.Context, importID string, closed []domain.ClosedTradePL) error {
	if importID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[importID]; exists {
		return storage.ErrDuplicateKey
	}

	stored := make([]domain.ClosedTradePL, len(closed))
	copy(stored, closed)
	s.data[importID] = stored
	return nil
}

// GetByImportID retrieves one import's closed trades in match order.
func (s *ClosedTradeStore) GetByImportID(_ context.Context, importID string) ([]domain.ClosedTradePL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.data[importID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	result := make([]domain.ClosedTradePL, len(stored))
	copy(result, stored)
	return result, nil
}

// GetBySymbol retrieves closed trades for a symbol across all imports,
// ordered by close date ASC.
func (s *ClosedTradeStore) GetBySymbol(_ context.Context, symbol string) ([]domain.ClosedTradePL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.ClosedTradePL
	for _, stored := range s.data {
		for _, c := range stored {
			if c.Symbol == symbol {
				result = append(result, c)
			}
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CloseDate.Before(result[j].CloseDate)
	})
	return result, nil
}

var _ storage.ClosedTradeStore = (*ClosedTradeStore)(nil)
