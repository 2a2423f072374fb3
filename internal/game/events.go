package game

import "quizroom/internal/domain"

// Event is the envelope the engine hands to the transport for fan-out.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Event types produced by the engine.
const (
	EventPlayers         = "players"
	EventQuestionStarted = "question_started"
	EventPlayerAnswered  = "player_answered"
	EventQuestionEnded   = "question_ended"
	EventGameEnded       = "game_ended"
)

// QuestionStartedPayload carries the armed question to every client.
// StartedAt is absolute (unix milliseconds) so all clients compute the
// same countdown regardless of delivery latency.
type QuestionStartedPayload struct {
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	StartedAt   int64    `json:"startedAt"`
	DurationSec int      `json:"durationSec"`
}

// PlayerAnsweredPayload announces one accepted submission.
type PlayerAnsweredPayload struct {
	Name        string  `json:"name"`
	Correct     bool    `json:"correct"`
	Points      int     `json:"points"`
	TimeLeftSec float64 `json:"timeLeftSec"`
}

// QuestionEndedPayload reveals the correct answers and every player's outcome.
type QuestionEndedPayload struct {
	Correct []int                          `json:"correctAnswers"`
	Results map[string]domain.AnswerRecord `json:"results"`
}

// GameEndedPayload carries the final standings.
type GameEndedPayload struct {
	TotalPlayers   int                       `json:"totalPlayers"`
	Leaderboard    []domain.LeaderboardEntry `json:"leaderboard"`
	LeaderboardAll []domain.LeaderboardEntry `json:"leaderboardAll"`
}

// Notifier is the narrow transport capability the engine depends on:
// fan a single event out to every connection in a room. Implementations
// must not block; the engine broadcasts while holding the room lock so
// that event order matches mutation order.
type Notifier interface {
	Broadcast(pin string, event Event)
}
