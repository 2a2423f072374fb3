package game

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"

	"quizroom/internal/domain"
)

// NormalizeCorrectAnswers parses the correct-answer field of a question
// payload. Authors send a single index, a list of indices, or (in older quiz
// documents) a legacy "answer" field; numbers may arrive as JSON numbers or
// strings. The result is a deduplicated, sorted, non-empty set: when nothing
// is parseable the question falls back to index 0 rather than being rejected,
// so a malformed payload never stalls a running game.
func NormalizeCorrectAnswers(correct, legacy json.RawMessage) []int {
	if set := parseIndexSet(correct); len(set) > 0 {
		return set
	}
	if set := parseIndexSet(legacy); len(set) > 0 {
		return set
	}
	return []int{0}
}

// ParseAnswerIndices parses a submitted answer: a single index, a list of
// indices, or their string forms. Returns nil when nothing is parseable;
// unlike the correct-answer side there is no fallback for submissions.
func ParseAnswerIndices(raw json.RawMessage) []int {
	return parseIndexSet(raw)
}

func parseIndexSet(raw json.RawMessage) []int {
	if len(raw) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	seen := make(map[int]struct{})
	collect := func(v any) {
		if idx, ok := asIndex(v); ok {
			seen[idx] = struct{}{}
		}
	}
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			collect(item)
		}
	default:
		collect(v)
	}
	if len(seen) == 0 {
		return nil
	}
	set := make([]int, 0, len(seen))
	for idx := range seen {
		set = append(set, idx)
	}
	sort.Ints(set)
	return set
}

func asIndex(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		idx, err := strconv.Atoi(n)
		if err != nil || idx < 0 {
			return 0, false
		}
		return idx, true
	}
	return 0, false
}

// ScoreResult is the outcome of scoring one submission.
type ScoreResult struct {
	Correct     bool
	Points      int
	TimeLeftSec float64
}

// Score grades a submitted answer set against the normalized correct set.
// Multi-select questions require exact set equality; partial credit is never
// awarded. A correct answer earns round(1000 * timeLeft / duration) points,
// so an instant answer approaches 1000 and a deadline answer approaches 0.
func Score(selected, correct []int, elapsed time.Duration, durationSec int) ScoreResult {
	timeLeft := float64(durationSec) - elapsed.Seconds()
	if timeLeft < 0 {
		timeLeft = 0
	}
	result := ScoreResult{TimeLeftSec: timeLeft}
	if !sameIndexSet(selected, correct) {
		return result
	}
	result.Correct = true
	if durationSec > 0 {
		points := int(math.Round(1000 * timeLeft / float64(durationSec)))
		if points > 0 {
			result.Points = points
		}
	}
	return result
}

func sameIndexSet(selected, correct []int) bool {
	normalized := dedupSorted(selected)
	if len(normalized) != len(correct) {
		return false
	}
	for i := range normalized {
		if normalized[i] != correct[i] {
			return false
		}
	}
	return true
}

func dedupSorted(indices []int) []int {
	if len(indices) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Leaderboard ranks players by (score desc, name asc) with standard
// competition ranking: tied players share a rank and the next distinct
// score resumes at its 1-based position.
func Leaderboard(players []domain.Player) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = domain.LeaderboardEntry{Name: p.Name, Score: p.Score}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
	return entries
}
