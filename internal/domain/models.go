package domain

import (
	"encoding/json"
	"time"
)

// Player is a roster entry: identity within a room is the name string,
// case-sensitive as submitted. Score accumulates across questions.
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// LeaderboardEntry is a ranked view of a player. Ties share a rank;
// the next distinct score resumes at previousRank + tieGroupSize.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Rank  int    `json:"rank"`
}

// QuestionPayload is the shape a host arms a question with, and the shape
// questions take inside an authored quiz document. Correct may be a single
// index or a list of indices; Answer is the legacy single-answer field some
// older quiz documents still carry.
type QuestionPayload struct {
	Text        string          `json:"text"`
	Options     []string        `json:"options"`
	Correct     json.RawMessage `json:"correct,omitempty"`
	Answer      json.RawMessage `json:"answer,omitempty"`
	DurationSec int             `json:"durationSec,omitempty"`
}

// Quiz is an authored collection of questions bound to an ID.
type Quiz struct {
	ID        string            `json:"id"`
	Title     string            `json:"title,omitempty"`
	Questions []QuestionPayload `json:"questions"`
}

// AnswerRecord is one player's outcome for one question. A nil Answer means
// the player never submitted before the reveal.
type AnswerRecord struct {
	Answer      []int   `json:"answer"`
	Correct     bool    `json:"correct"`
	Points      int     `json:"points"`
	TimeLeftSec float64 `json:"timeLeftSec"`
}

// QuestionResult is the immutable record of one revealed question.
// QuestionID is the question's startedAt in unix milliseconds and doubles
// as the de-duplication key for history appends.
type QuestionResult struct {
	QuestionID  int64                   `json:"questionId"`
	Text        string                  `json:"text"`
	Options     []string                `json:"options"`
	Correct     []int                   `json:"correctAnswers"`
	StartedAt   time.Time               `json:"startedAt"`
	DurationSec int                     `json:"durationSec"`
	Results     map[string]AnswerRecord `json:"results"`
}

// GameRecord is the external PIN binding: which quiz a PIN runs and who owns it.
type GameRecord struct {
	PIN     string `json:"pin"`
	QuizID  string `json:"quizId"`
	OwnerID string `json:"ownerId,omitempty"`
}

// GameHistory is the single durable record written when a room's game ends.
type GameHistory struct {
	PIN            string             `json:"pin"`
	QuizID         string             `json:"quizId,omitempty"`
	OwnerID        string             `json:"ownerId,omitempty"`
	StartedAt      time.Time          `json:"startedAt"`
	EndedAt        time.Time          `json:"endedAt"`
	TotalPlayers   int                `json:"totalPlayers"`
	Players        []Player           `json:"players"`
	Questions      []QuestionResult   `json:"questions"`
	Leaderboard    []LeaderboardEntry `json:"leaderboard"`
	LeaderboardAll []LeaderboardEntry `json:"leaderboardAll"`
}
