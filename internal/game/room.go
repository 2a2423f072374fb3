package game

import (
	"sync"
	"time"

	"quizroom/internal/domain"
)

// question is the single active question of a room. It models both the
// collecting and the revealed state: ended flips once and the struct stays
// in place until the host arms the next question, so late reveal triggers
// observe ended=true and no-op.
type question struct {
	seq         uint64
	text        string
	options     []string
	correct     []int
	startedAt   time.Time
	durationSec int
	ended       bool
	answers     map[string]domain.AnswerRecord
	timer       *time.Timer
}

func (q *question) stopTimer() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// Room holds the full in-memory state of one game, keyed by PIN. All fields
// are guarded by mu; the engine locks a room for the whole span of one event
// so that events for the same PIN never interleave mid-mutation.
type Room struct {
	pin string

	mu        sync.Mutex
	players   []*domain.Player
	quizID    string
	cursor    int
	startedAt time.Time
	history   []domain.QuestionResult
	saved     bool
	current   *question
	lastSeq   uint64
}

func newRoom(pin string) *Room {
	return &Room{pin: pin}
}

// PIN returns the room's identity.
func (r *Room) PIN() string {
	return r.pin
}

// IsIdle reports whether the room has no players and no question in flight.
// The engine never evicts rooms itself; outer connection tracking may use
// this to sweep finished rooms.
func (r *Room) IsIdle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == 0 && r.current == nil
}

func (r *Room) findPlayerLocked(name string) *domain.Player {
	for _, p := range r.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (r *Room) snapshotLocked() []domain.Player {
	out := make([]domain.Player, len(r.players))
	for i, p := range r.players {
		out[i] = *p
	}
	return out
}

func (r *Room) hasResultLocked(questionID int64) bool {
	for _, res := range r.history {
		if res.QuestionID == questionID {
			return true
		}
	}
	return false
}
