package memory

import (
	"context"
	"sync"

	"quizroom/internal/domain"
)

// HistoryStore keeps finished-game records in memory. The durable store of
// record is Postgres; this one backs tests and redis/postgres-less runs.
type HistoryStore struct {
	mu      sync.Mutex
	records []domain.GameHistory
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) SaveHistory(_ context.Context, history domain.GameHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, history)
	return nil
}

// Records returns a copy of everything saved so far.
func (s *HistoryStore) Records() []domain.GameHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.GameHistory(nil), s.records...)
}
