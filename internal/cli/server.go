package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizroom/internal/config"
	"quizroom/internal/domain"
	"quizroom/internal/game"
	"quizroom/internal/infra/memory"
	pginfra "quizroom/internal/infra/postgres"
	redisinfra "quizroom/internal/infra/redis"
	transport "quizroom/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo game.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var games game.GameLookup = memory.NewStaticGameLookup(sampleGames())
	if pool != nil {
		games = pginfra.NewGameLookup(pool)
	}
	if redisClient != nil {
		games = redisinfra.NewGameLookup(redisClient, games, redisTTL)
	}

	var history game.HistoryStore = memory.NewHistoryStore()
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()
		history = pginfra.NewHistoryStore(db)
	}

	hub := transport.NewHub()
	engine := game.NewEngine(game.NewRegistry(), hub, quizRepo, games, history)
	if cfg.Game.LeaderboardTop > 0 {
		engine.SetLeaderboardTop(cfg.Game.LeaderboardTop)
	}
	wsHandler := transport.NewWSHandler(engine, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizroom server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes and sampleGames back a demo run without Postgres; swap in
// the database-backed loaders by configuring postgres.url.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Questions: []domain.QuestionPayload{
				{
					Text:        "What is 2 + 2?",
					Options:     []string{"3", "4", "5"},
					Correct:     json.RawMessage(`1`),
					DurationSec: 20,
				},
				{
					Text:        "Which of these are prime?",
					Options:     []string{"4", "5", "7", "9"},
					Correct:     json.RawMessage(`[1,2]`),
					DurationSec: 30,
				},
			},
		},
	}
}

func sampleGames() map[string]domain.GameRecord {
	return map[string]domain.GameRecord{
		"DEMO42": {PIN: "DEMO42", QuizID: "quiz-1"},
	}
}
