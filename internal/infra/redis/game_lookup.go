package redis

import (
	"context"
	"encoding/json"
	"time"

	"quizroom/internal/domain"
	"github.com/redis/go-redis/v9"
)

// GameLookup caches PIN bindings in Redis as JSON under game:pin:{pin}.
// The binding is immutable for the life of a game, so the cache never needs
// invalidation beyond its TTL. A lookup miss in the backing store is not
// cached: an absent record is already the cheap path.
type GameLookup struct {
	client  *redis.Client
	backing Backing
	ttl     time.Duration
}

// Backing is the authoritative PIN lookup (e.g., Postgres).
type Backing interface {
	FindByPIN(ctx context.Context, pin string) (domain.GameRecord, error)
}

func NewGameLookup(client *redis.Client, backing Backing, ttl time.Duration) *GameLookup {
	return &GameLookup{client: client, backing: backing, ttl: ttl}
}

func (l *GameLookup) FindByPIN(ctx context.Context, pin string) (domain.GameRecord, error) {
	key := l.key(pin)
	if data, err := l.client.Get(ctx, key).Bytes(); err == nil {
		var rec domain.GameRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			return rec, nil
		}
	}

	rec, err := l.backing.FindByPIN(ctx, pin)
	if err != nil {
		return domain.GameRecord{}, err
	}
	if data, err := json.Marshal(rec); err == nil {
		_ = l.client.Set(ctx, key, data, l.ttl).Err()
	}
	return rec, nil
}

func (l *GameLookup) key(pin string) string {
	return "game:pin:" + pin
}
