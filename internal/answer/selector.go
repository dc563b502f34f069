// internal/answer/selector.go
//
// Daily answer selection.
// One answer per calendar date, created lazily on first access and immutable
// afterwards. Selection is weighted by appearance count so well-known players
// come up more often, but the storage layer's per-date uniqueness is the final
// arbiter when two callers race the first access.

package answer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/catalog"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/storage"
)

// ErrNoEligiblePlayers is returned when the catalog has no non-retired
// players to select from.
var ErrNoEligiblePlayers = errors.New("no eligible players for answer selection")

// Weight classes over appearance counts. Higher-appearance players are
// favored: the class is drawn first by weight, then a member uniformly.
type weightClass struct {
	name   string
	weight int
	member func(appearance int) bool
}

var weightClasses = []weightClass{
	{"low", 10, func(n int) bool { return n <= 2 }},
	{"medium", 30, func(n int) bool { return n >= 3 && n <= 5 }},
	{"high", 60, func(n int) bool { return n >= 6 }},
}

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Selector picks and memoizes one answer per date.
type Selector struct {
	store storage.Store

	mu    sync.Mutex
	cache map[string]int64 // date -> player id; answers never change once created
	rng   *rand.Rand
}

// New constructs a Selector over the given store.
func New(store storage.Store) *Selector {
	return &Selector{
		store: store,
		cache: make(map[string]int64),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetOrCreate returns the answer player id for the date, creating it on first
// access. Calling it twice for the same date always yields the same id.
func (s *Selector) GetOrCreate(ctx context.Context, date string) (int64, error) {
	s.mu.Lock()
	if id, ok := s.cache[date]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	if id, err := s.store.DailyAnswer(ctx, date); err == nil {
		s.remember(date, id)
		return id, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("read daily answer: %w", err)
	}

	candidate, err := s.draw(ctx)
	if err != nil {
		return 0, err
	}

	// Another process (or request) may have inserted between our read and
	// this write; the persisted row wins either way.
	id, err := s.store.CreateDailyAnswer(ctx, date, candidate.ID)
	if err != nil {
		return 0, fmt.Errorf("create daily answer: %w", err)
	}
	if id != candidate.ID {
		log.Debug().Str("date", date).Int64("lost", candidate.ID).Int64("won", id).
			Msg("daily answer race resolved by storage")
	}
	s.remember(date, id)
	return id, nil
}

// EnsureUpcoming makes sure answers exist for today and tomorrow relative to
// now. Each date is attempted independently; a failure on one does not stop
// the other. The returned map holds a nil or non-nil error per date.
func (s *Selector) EnsureUpcoming(ctx context.Context, now time.Time) map[string]error {
	out := make(map[string]error, 2)
	for _, d := range []string{DateKey(now), DateKey(now.AddDate(0, 0, 1))} {
		_, err := s.GetOrCreate(ctx, d)
		out[d] = err
		if err != nil {
			log.Error().Err(err).Str("date", d).Msg("ensure daily answer")
		}
	}
	return out
}

func (s *Selector) remember(date string, id int64) {
	s.mu.Lock()
	s.cache[date] = id
	s.mu.Unlock()
}

// draw partitions the non-retired catalog into weight classes, draws a class
// by weight, then a member uniformly. An empty drawn class falls back to a
// uniform pick among the non-empty ones.
func (s *Selector) draw(ctx context.Context) (catalog.Player, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return catalog.Player{}, fmt.Errorf("list players: %w", err)
	}

	classes := make([][]catalog.Player, len(weightClasses))
	total := 0
	for _, p := range players {
		if p.IsRetired() {
			continue
		}
		for i, wc := range weightClasses {
			if wc.member(p.Appearance) {
				classes[i] = append(classes[i], p)
				break
			}
		}
	}
	for _, wc := range weightClasses {
		total += wc.weight
	}

	var nonEmpty []int
	for i := range classes {
		if len(classes[i]) > 0 {
			nonEmpty = append(nonEmpty, i)
		}
	}
	if len(nonEmpty) == 0 {
		return catalog.Player{}, ErrNoEligiblePlayers
	}

	s.mu.Lock()
	roll := s.rng.Intn(total)
	s.mu.Unlock()

	chosen := -1
	for i, wc := range weightClasses {
		if roll < wc.weight {
			chosen = i
			break
		}
		roll -= wc.weight
	}
	if chosen < 0 || len(classes[chosen]) == 0 {
		s.mu.Lock()
		chosen = nonEmpty[s.rng.Intn(len(nonEmpty))]
		s.mu.Unlock()
	}

	pool := classes[chosen]
	s.mu.Lock()
	pick := pool[s.rng.Intn(len(pool))]
	s.mu.Unlock()
	return pick, nil
}
