package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quizroom/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// GameLookup resolves the PIN binding (quiz + owning identity) from the
// games table. Absence is reported as domain.ErrGameNotFound; callers treat
// it as "history without an owner", never as a failure.
type GameLookup struct {
	pool *pgxpool.Pool
}

func NewGameLookup(pool *pgxpool.Pool) *GameLookup {
	return &GameLookup{pool: pool}
}

func (l *GameLookup) FindByPIN(ctx context.Context, pin string) (domain.GameRecord, error) {
	var quizID string
	var ownerID sql.NullString
	err := l.pool.QueryRow(ctx, `SELECT quiz_id, owner_id FROM games WHERE pin=$1`, pin).Scan(&quizID, &ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.GameRecord{}, fmt.Errorf("find game: %w", err)
	}
	return domain.GameRecord{PIN: pin, QuizID: quizID, OwnerID: ownerID.String}, nil
}
