package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quizroom/internal/domain"
	"quizroom/internal/game"
	pginfra "quizroom/internal/infra/postgres"
	pgmigrations "quizroom/internal/infra/postgres/migrations"
	redisinfra "quizroom/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []game.Event
}

func (n *recordingNotifier) Broadcast(_ string, event game.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, ev := range n.events {
		if ev.Type == eventType {
			c++
		}
	}
	return c
}

func TestFullGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateAndSeed(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizzes := redisinfra.NewQuizRepository(redisClient, pginfra.NewQuizLoader(pool), 5*time.Minute)
	games := redisinfra.NewGameLookup(redisClient, pginfra.NewGameLookup(pool), 5*time.Minute)
	history := pginfra.NewHistoryStore(db)

	notifier := &recordingNotifier{}
	engine := game.NewEngine(game.NewRegistry(), notifier, quizzes, games, history)

	engine.HostJoin(ctx, "424242", "")
	engine.Join("424242", "Ann")
	engine.Join("424242", "Bob")

	if err := engine.ArmNext(ctx, "424242"); err != nil {
		t.Fatalf("arm next: %v", err)
	}
	engine.SubmitAnswer("424242", "Ann", []int{1})
	engine.SubmitAnswer("424242", "Bob", []int{0})

	// Both answered: the question reveals early.
	if got := notifier.count(game.EventQuestionEnded); got != 1 {
		t.Fatalf("expected early reveal, got %d end events", got)
	}

	engine.EndGame(ctx, "424242")
	engine.EndGame(ctx, "424242")

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM game_histories WHERE pin=$1`, "424242").Scan(&count); err != nil {
		t.Fatalf("count histories: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one history row, got %d", count)
	}

	var raw []byte
	if err := pool.QueryRow(ctx, `SELECT data FROM game_histories WHERE pin=$1`, "424242").Scan(&raw); err != nil {
		t.Fatalf("load history: %v", err)
	}
	var record domain.GameHistory
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if record.OwnerID != "teacher-1" || record.QuizID != "quiz-1" {
		t.Fatalf("expected owner attribution, got %+v", record)
	}
	if record.TotalPlayers != 2 || len(record.Questions) != 1 {
		t.Fatalf("expected 2 players and 1 question, got %+v", record)
	}
	if record.LeaderboardAll[0].Name != "Ann" || record.LeaderboardAll[0].Rank != 1 {
		t.Fatalf("expected Ann leading, got %+v", record.LeaderboardAll)
	}
}

func migrateAndSeed(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	quiz := domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.QuestionPayload{
			{
				Text:        "What is 2 + 2?",
				Options:     []string{"3", "4", "5"},
				Correct:     json.RawMessage(`1`),
				DurationSec: 20,
			},
		},
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO games (pin, quiz_id, owner_id) VALUES (?, ?, ?) ON CONFLICT (pin) DO NOTHING`, "424242", "quiz-1", "teacher-1"); err != nil {
		t.Fatalf("insert game: %v", err)
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
