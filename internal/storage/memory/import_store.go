package memory

import (
	"context"
	"sort"
	"sync"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/storage"
)

// ImportStore is an in-memory implementation of storage.ImportStore.
type ImportStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ImportRecord // keyed by import_id
}

// NewImportStore creates a new in-memory import store.
func NewImportStore() *ImportStore {
	return &ImportStore{
		data: make(map[string]*domain.ImportRecord),
	}
}

// Insert adds a new import record. Returns ErrDuplicateKey if import_id exists.
func (s *ImportStore) Insert(_ context.Context, rec *domain.ImportRecord) error {
	if rec == nil || rec.ImportID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.ImportID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *rec
	s.data[rec.ImportID] = &copy
	return nil
}

// GetByID retrieves an import by its ID. Returns ErrNotFound if not exists.
func (s *ImportStore) GetByID(_ context.Context, importID string) (*domain.ImportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[importID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *rec
	return &copy, nil
}

// GetAll retrieves all imports, ordered by imported_at ASC.
func (s *ImportStore) GetAll(_ context.Context) ([]*domain.ImportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ImportRecord, 0, len(s.data))
	for _, rec := range s.data {
		copy := *rec
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ImportedAt.Equal(result[j].ImportedAt) {
			return result[i].ImportedAt.Before(result[j].ImportedAt)
		}
		return result[i].ImportID < result[j].ImportID
	})
	return result, nil
}

var _ storage.ImportStore = (*ImportStore)(nil)
