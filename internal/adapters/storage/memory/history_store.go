package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/chatrelay/internal/domain"
)

// HistoryStore is an in-memory domain.HistoryRecorder.
// It is NOT persistent and is only suitable for development / tests.
type HistoryStore struct {
	mu      sync.RWMutex
	records []domain.ChatHistoryRecord
	failErr error
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Record(_ context.Context, rec domain.ChatHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return s.failErr
	}
	s.records = append(s.records, rec)
	return nil
}

// FailWith makes every following Record call return err. nil restores
// normal behaviour.
func (s *HistoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Records returns the last `limit` records in insertion order.
// If limit <= 0, returns all.
func (s *HistoryStore) Records(limit int) []domain.ChatHistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.records
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	out := make([]domain.ChatHistoryRecord, len(recs))
	copy(out, recs)
	return out
}
