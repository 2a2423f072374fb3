package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quizroom/internal/domain"
	"github.com/uptrace/bun"
)

// HistoryStore writes one game_histories row per finished room. The full
// record is stored as JSONB; pin/quiz/owner are lifted into columns for
// querying by the reporting side.
type HistoryStore struct {
	db *bun.DB
}

func NewHistoryStore(db *bun.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

type gameHistoryRow struct {
	bun.BaseModel `bun:"table:game_histories"`

	ID        int64     `bun:"id,pk,autoincrement"`
	PIN       string    `bun:"pin,notnull"`
	QuizID    string    `bun:"quiz_id"`
	OwnerID   string    `bun:"owner_id"`
	Data      []byte    `bun:"data,type:jsonb,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func (s *HistoryStore) SaveHistory(ctx context.Context, history domain.GameHistory) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	row := &gameHistoryRow{
		PIN:     history.PIN,
		QuizID:  history.QuizID,
		OwnerID: history.OwnerID,
		Data:    data,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}
