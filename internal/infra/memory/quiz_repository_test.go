package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"quizroom/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestStaticQuizLoaderMiss(t *testing.T) {
	loader := NewStaticQuizLoader(nil)
	if _, err := loader.LoadQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestStaticGameLookup(t *testing.T) {
	lookup := NewStaticGameLookup(map[string]domain.GameRecord{
		"1234": {PIN: "1234", QuizID: "quiz-1", OwnerID: "owner-1"},
	})
	rec, err := lookup.FindByPIN(context.Background(), "1234")
	if err != nil || rec.QuizID != "quiz-1" {
		t.Fatalf("expected record, got %+v err=%v", rec, err)
	}
	if _, err := lookup.FindByPIN(context.Background(), "0000"); err != domain.ErrGameNotFound {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestHistoryStoreAppends(t *testing.T) {
	store := NewHistoryStore()
	if err := store.SaveHistory(context.Background(), domain.GameHistory{PIN: "1234"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	records := store.Records()
	if len(records) != 1 || records[0].PIN != "1234" {
		t.Fatalf("expected one record for 1234, got %+v", records)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.QuestionPayload{
			{
				Text:    "What is 2 + 2?",
				Options: []string{"3", "4"},
				Correct: json.RawMessage(`1`),
			},
		},
	}
}
