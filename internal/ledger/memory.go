package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"spot_bot/internal/models"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   []models.OrderRecord
	bySell map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bySell: make(map[string]int)}
}

func (s *MemoryStore) Insert(_ context.Context, rec models.OrderRecord) (models.OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bySell[rec.SellOrderID]; ok {
		return models.OrderRecord{}, errors.Wrap(ErrDuplicateOrder, rec.SellOrderID)
	}
	s.nextID++
	rec.ID = s.nextID
	s.bySell[rec.SellOrderID] = len(s.rows)
	s.rows = append(s.rows, rec)
	return rec, nil
}

func (s *MemoryStore) MarkClosed(_ context.Context, symbol, sellOrderID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.bySell[sellOrderID]
	if !ok || s.rows[i].Symbol != symbol || s.rows[i].Status != models.RecordOpen {
		return false, nil
	}
	s.rows[i].Status = models.RecordClosed
	s.rows[i].UpdatedAt = at
	return true, nil
}

func (s *MemoryStore) ListOpen(_ context.Context, symbol string) ([]models.OrderRecord, error) {
	return s.list(symbol, true), nil
}

func (s *MemoryStore) ListAll(_ context.Context, symbol string) ([]models.OrderRecord, error) {
	return s.list(symbol, false), nil
}

func (s *MemoryStore) list(symbol string, openOnly bool) []models.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OrderRecord, 0, len(s.rows))
	for _, r := range s.rows {
		if r.Symbol != symbol || (openOnly && r.Status != models.RecordOpen) {
			continue
		}
		out = append(out, r)
	}
	return out
}
