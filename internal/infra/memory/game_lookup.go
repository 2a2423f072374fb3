package memory

import (
	"context"

	"quizroom/internal/domain"
)

// StaticGameLookup resolves PIN bindings from an in-memory map. Useful for
// tests and for running without Postgres; a missing PIN is tolerated by the
// engine everywhere a lookup happens.
type StaticGameLookup struct {
	games map[string]domain.GameRecord
}

func NewStaticGameLookup(games map[string]domain.GameRecord) *StaticGameLookup {
	if games == nil {
		games = make(map[string]domain.GameRecord)
	}
	return &StaticGameLookup{games: games}
}

func (l *StaticGameLookup) FindByPIN(_ context.Context, pin string) (domain.GameRecord, error) {
	if rec, ok := l.games[pin]; ok {
		return rec, nil
	}
	return domain.GameRecord{}, domain.ErrGameNotFound
}
