package game

import (
	"context"
	"log"
	"time"

	"quizroom/internal/domain"
)

// Question duration bounds. A non-positive or unparseable duration falls
// back to the default rather than rejecting the question.
const (
	DefaultQuestionSeconds = 20
	MinQuestionSeconds     = 5
	MaxQuestionSeconds     = 300
)

// DefaultLeaderboardTop is how many entries the display leaderboard carries.
const DefaultLeaderboardTop = 5

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// GameLookup resolves the external PIN binding: which quiz a PIN runs and
// the owning identity used to attribute persisted history. Absence of a
// record is tolerated everywhere.
type GameLookup interface {
	FindByPIN(ctx context.Context, pin string) (domain.GameRecord, error)
}

// HistoryStore accepts the single durable write per finished room.
type HistoryStore interface {
	SaveHistory(ctx context.Context, history domain.GameHistory) error
}

// Engine drives the question lifecycle for every room: arming, concurrent
// answer collection, deadline/early reveal, scoring and the final hand-off
// to durable storage. All externally triggerable misuse (duplicate answers,
// reveals with nothing armed, unknown PINs) degrades to a silent no-op.
type Engine struct {
	rooms    *Registry
	notifier Notifier
	quizzes  QuizRepository
	games    GameLookup
	history  HistoryStore
	topN     int
	now      func() time.Time
}

func NewEngine(rooms *Registry, notifier Notifier, quizzes QuizRepository, games GameLookup, history HistoryStore) *Engine {
	return NewEngineWithClock(rooms, notifier, quizzes, games, history, time.Now)
}

// NewEngineWithClock allows deterministic timestamps in tests.
func NewEngineWithClock(rooms *Registry, notifier Notifier, quizzes QuizRepository, games GameLookup, history HistoryStore, now func() time.Time) *Engine {
	return &Engine{
		rooms:    rooms,
		notifier: notifier,
		quizzes:  quizzes,
		games:    games,
		history:  history,
		topN:     DefaultLeaderboardTop,
		now:      now,
	}
}

// SetLeaderboardTop overrides how many entries the display leaderboard carries.
func (e *Engine) SetLeaderboardTop(n int) {
	if n > 0 {
		e.topN = n
	}
}

// HostJoin binds a quiz to the room when the host connects. With no explicit
// quiz ID the external game record for the PIN decides; a missing record
// leaves the room without a quiz, which only disables next-question advancing.
func (e *Engine) HostJoin(ctx context.Context, pin, quizID string) {
	if quizID == "" {
		if rec, err := e.games.FindByPIN(ctx, pin); err == nil {
			quizID = rec.QuizID
		}
	}
	room := e.rooms.GetOrCreate(pin)
	room.mu.Lock()
	defer room.mu.Unlock()
	if quizID != "" && room.quizID == "" {
		room.quizID = quizID
	}
	e.notifier.Broadcast(pin, Event{Type: EventPlayers, Payload: room.snapshotLocked()})
}

// Join adds a player to the roster. Re-joining an existing name keeps the
// score untouched but still broadcasts a snapshot so a reconnecting client
// converges.
func (e *Engine) Join(pin, name string) {
	room := e.rooms.GetOrCreate(pin)
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.findPlayerLocked(name) == nil {
		room.players = append(room.players, &domain.Player{Name: name})
	}
	e.notifier.Broadcast(pin, Event{Type: EventPlayers, Payload: room.snapshotLocked()})
}

// Leave removes a player, if present. An answer they already submitted for
// the active question stays valid.
func (e *Engine) Leave(pin, name string) {
	room := e.rooms.GetOrCreate(pin)
	room.mu.Lock()
	defer room.mu.Unlock()
	for i, p := range room.players {
		if p.Name == name {
			room.players = append(room.players[:i], room.players[i+1:]...)
			e.notifier.Broadcast(pin, Event{Type: EventPlayers, Payload: room.snapshotLocked()})
			return
		}
	}
}

// Snapshot returns the current ordered roster.
func (e *Engine) Snapshot(pin string) []domain.Player {
	room := e.rooms.GetOrCreate(pin)
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.snapshotLocked()
}

// ArmQuestion opens answer collection for a new question. Arming while a
// previous question is still collecting cancels its pending reveal without
// recording a result: an explicit host override.
func (e *Engine) ArmQuestion(pin string, payload domain.QuestionPayload, durationSec int) {
	room := e.rooms.GetOrCreate(pin)
	room.mu.Lock()
	defer room.mu.Unlock()
	e.armLocked(room, payload, durationSec)
}

// ArmNext advances the room through its attached quiz document and arms the
// next question. Exercises the quiz repository (and its cache) on every call.
func (e *Engine) ArmNext(ctx context.Context, pin string) error {
	room := e.rooms.GetOrCreate(pin)

	room.mu.Lock()
	quizID := room.quizID
	room.mu.Unlock()
	if quizID == "" {
		return domain.ErrNoQuizAttached
	}

	quiz, err := e.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.cursor >= len(quiz.Questions) {
		return domain.ErrQuizExhausted
	}
	payload := quiz.Questions[room.cursor]
	room.cursor++
	e.armLocked(room, payload, payload.DurationSec)
	return nil
}

func (e *Engine) armLocked(room *Room, payload domain.QuestionPayload, durationSec int) {
	if durationSec <= 0 {
		durationSec = payload.DurationSec
	}
	durationSec = clampDuration(durationSec)

	options := payload.Options
	if len(options) > 4 {
		options = options[:4]
	}

	if room.current != nil {
		room.current.stopTimer()
	}

	now := e.now()
	if room.startedAt.IsZero() {
		room.startedAt = now
	}

	room.lastSeq++
	q := &question{
		seq:         room.lastSeq,
		text:        payload.Text,
		options:     options,
		correct:     NormalizeCorrectAnswers(payload.Correct, payload.Answer),
		startedAt:   now,
		durationSec: durationSec,
		answers:     make(map[string]domain.AnswerRecord),
	}
	room.current = q

	pin, seq := room.pin, q.seq
	q.timer = time.AfterFunc(time.Duration(durationSec)*time.Second, func() {
		e.revealExpired(pin, seq)
	})

	e.notifier.Broadcast(pin, Event{Type: EventQuestionStarted, Payload: QuestionStartedPayload{
		Text:        q.text,
		Options:     q.options,
		StartedAt:   q.startedAt.UnixMilli(),
		DurationSec: q.durationSec,
	}})
}

// SubmitAnswer records one player's answer for the active question. It is a
// silent no-op when nothing is armed, the question already ended, the player
// is unknown, or the player already answered: first answer wins. Once every
// roster member has answered the reveal fires without waiting for the timer.
func (e *Engine) SubmitAnswer(pin, name string, answer []int) {
	room := e.rooms.GetOrCreate(pin)
	room.mu.Lock()
	defer room.mu.Unlock()

	q := room.current
	if q == nil || q.ended {
		return
	}
	if _, dup := q.answers[name]; dup {
		return
	}
	player := room.findPlayerLocked(name)
	if player == nil {
		return
	}

	elapsed := e.now().Sub(q.startedAt)
	scored := Score(answer, q.correct, elapsed, q.durationSec)

	q.answers[name] = domain.AnswerRecord{
		Answer:      dedupSorted(answer),
		Correct:     scored.Correct,
		Points:      scored.Points,
		TimeLeftSec: scored.TimeLeftSec,
	}
	player.Score += scored.Points

	e.notifier.Broadcast(pin, Event{Type: EventPlayerAnswered, Payload: PlayerAnsweredPayload{
		Name:        name,
		Correct:     scored.Correct,
		Points:      scored.Points,
		TimeLeftSec: scored.TimeLeftSec,
	}})
	e.notifier.Broadcast(pin, Event{Type: EventPlayers, Payload: room.snapshotLocked()})

	if len(q.answers) >= len(room.players) && len(room.players) > 0 {
		e.revealLocked(room)
	}
}

// Reveal finalizes the active question. Safe to call from the deadline
// timer, the early-reveal trigger or an explicit host skip, and safe to
// call more than once.
func (e *Engine) Reveal(pin string) {
	room := e.rooms.GetOrCreate(pin)
	room.mu.Lock()
	defer room.mu.Unlock()
	e.revealLocked(room)
}

// revealExpired is the deadline timer callback. The sequence check pins the
// reveal to the question instance the timer was scheduled for: a timer for
// an overridden question must never reveal its successor.
func (e *Engine) revealExpired(pin string, seq uint64) {
	room, ok := e.rooms.Get(pin)
	if !ok {
		return
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.current == nil || room.current.seq != seq {
		return
	}
	e.revealLocked(room)
}

func (e *Engine) revealLocked(room *Room) {
	q := room.current
	if q == nil || q.ended {
		return
	}
	q.stopTimer()
	q.ended = true

	results := make(map[string]domain.AnswerRecord, len(room.players))
	for name, rec := range q.answers {
		results[name] = rec
	}
	for _, p := range room.players {
		if _, ok := results[p.Name]; !ok {
			results[p.Name] = domain.AnswerRecord{}
		}
	}

	e.notifier.Broadcast(room.pin, Event{Type: EventQuestionEnded, Payload: QuestionEndedPayload{
		Correct: q.correct,
		Results: results,
	}})

	questionID := q.startedAt.UnixMilli()
	if !room.hasResultLocked(questionID) {
		room.history = append(room.history, domain.QuestionResult{
			QuestionID:  questionID,
			Text:        q.text,
			Options:     q.options,
			Correct:     q.correct,
			StartedAt:   q.startedAt,
			DurationSec: q.durationSec,
			Results:     results,
		})
	}
}

// EndGame cancels any pending question, broadcasts the final standings and
// persists the game history exactly once per room lifetime. Calling it again
// re-broadcasts a recomputed leaderboard without a second write. The history
// write is fire-and-forget: failures are logged and never reach the players.
func (e *Engine) EndGame(ctx context.Context, pin string) {
	room := e.rooms.GetOrCreate(pin)

	room.mu.Lock()
	if room.current != nil {
		room.current.stopTimer()
		room.current = nil
	}

	players := room.snapshotLocked()
	all := Leaderboard(players)
	top := all
	if len(top) > e.topN {
		top = top[:e.topN]
	}

	e.notifier.Broadcast(pin, Event{Type: EventGameEnded, Payload: GameEndedPayload{
		TotalPlayers:   len(players),
		Leaderboard:    top,
		LeaderboardAll: all,
	}})

	if room.saved {
		room.mu.Unlock()
		return
	}
	room.saved = true

	record := domain.GameHistory{
		PIN:            pin,
		QuizID:         room.quizID,
		StartedAt:      room.startedAt,
		EndedAt:        e.now(),
		TotalPlayers:   len(players),
		Players:        players,
		Questions:      append([]domain.QuestionResult(nil), room.history...),
		Leaderboard:    top,
		LeaderboardAll: all,
	}
	room.mu.Unlock()

	if rec, err := e.games.FindByPIN(ctx, pin); err == nil {
		record.OwnerID = rec.OwnerID
		if record.QuizID == "" {
			record.QuizID = rec.QuizID
		}
	}
	if err := e.history.SaveHistory(ctx, record); err != nil {
		log.Printf("failed to save history for pin %s: %v", pin, err)
	}
}

func clampDuration(durationSec int) int {
	switch {
	case durationSec <= 0:
		return DefaultQuestionSeconds
	case durationSec < MinQuestionSeconds:
		return MinQuestionSeconds
	case durationSec > MaxQuestionSeconds:
		return MaxQuestionSeconds
	}
	return durationSec
}
