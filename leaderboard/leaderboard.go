package leaderboard

import (
	"sort"
	"sync"
)

// Entry is one row of the leaderboard.
type Entry struct {
	Address string `json:"address"`
	Score   uint64 `json:"score"`
}

type score struct {
	count uint64
	// sequence number of the mutation that brought count to its current value,
	// the earliest to reach a score ranks first on ties
	reachedAt uint64
}

// Aggregator keeps a mutation count per actor.
type Aggregator struct {
	mu     sync.RWMutex
	scores map[string]*score
	seq    uint64
}

func New() *Aggregator {
	return &Aggregator{
		scores: map[string]*score{},
	}
}

// RecordMutation increments the actor's score by one.
func (a *Aggregator) RecordMutation(actor string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seq++
	s, ok := a.scores[actor]
	if !ok {
		s = &score{}
		a.scores[actor] = s
	}
	s.count++
	s.reachedAt = a.seq
	return s.count
}

func (a *Aggregator) Score(actor string) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if s, ok := a.scores[actor]; ok {
		return s.count
	}
	return 0
}

// TopK returns the k best actors, highest score first. It is recomputed from
// the full map on every call.
func (a *Aggregator) TopK(k int) []Entry {
	a.mu.RLock()
	type row struct {
		Entry
		reachedAt uint64
	}
	rows := make([]row, 0, len(a.scores))
	for actor, s := range a.scores {
		rows = append(rows, row{
			Entry:     Entry{Address: actor, Score: s.count},
			reachedAt: s.reachedAt,
		})
	}
	a.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].reachedAt < rows[j].reachedAt
	})

	if k < 0 {
		k = 0
	}
	if k > len(rows) {
		k = len(rows)
	}
	out := make([]Entry, 0, k)
	for _, r := range rows[:k] {
		out = append(out, r.Entry)
	}
	return out
}

// Counts returns a copy of all the scores.
func (a *Aggregator) Counts() map[string]uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]uint64, len(a.scores))
	for actor, s := range a.scores {
		out[actor] = s.count
	}
	return out
}

// Restore replaces all the scores. Ties among restored actors are ordered
// by actor name.
func (a *Aggregator) Restore(counts map[string]uint64) {
	actors := make([]string, 0, len(counts))
	for actor := range counts {
		actors = append(actors, actor)
	}
	sort.Strings(actors)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.scores = make(map[string]*score, len(counts))
	a.seq = 0
	for _, actor := range actors {
		if counts[actor] == 0 {
			continue
		}
		a.seq++
		a.scores[actor] = &score{count: counts[actor], reachedAt: a.seq}
	}
}
