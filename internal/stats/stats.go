// internal/stats/stats.go
//
// Rolling per-identity statistics, updated once per completed daily game.

package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/storage"
)

// Summary is the API-facing stats shape, a StatsRecord plus the derived win
// percentage.
type Summary struct {
	GamesPlayed       int         `json:"gamesPlayed"`
	GamesWon          int         `json:"gamesWon"`
	CurrentStreak     int         `json:"currentStreak"`
	MaxStreak         int         `json:"maxStreak"`
	WinPercentage     int         `json:"winPercentage"`
	GuessDistribution map[int]int `json:"guessDistribution"`
}

// Aggregator serializes read-modify-write cycles on stats rows so two
// completions for the same identity cannot interleave between the read and
// the write.
type Aggregator struct {
	store storage.Store
	mu    sync.Mutex
}

func New(store storage.Store) *Aggregator {
	return &Aggregator{store: store}
}

// RecordCompletion folds one finished game into the identity's record.
// attemptNumber only lands in the distribution histogram on a win.
func (a *Aggregator) RecordCompletion(ctx context.Context, identity string, won bool, attemptNumber int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.store.Stats(ctx, identity)
	if errors.Is(err, storage.ErrNotFound) {
		rec = storage.StatsRecord{Identity: identity}
	} else if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}
	if rec.GuessDistribution == nil {
		rec.GuessDistribution = make(map[int]int)
	}

	rec.GamesPlayed++
	if won {
		rec.GamesWon++
		rec.CurrentStreak++
		rec.GuessDistribution[attemptNumber]++
	} else {
		rec.CurrentStreak = 0
	}
	if rec.CurrentStreak > rec.MaxStreak {
		rec.MaxStreak = rec.CurrentStreak
	}

	if err := a.store.UpsertStats(ctx, rec); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// Get returns the identity's summary. A missing record yields zeroed
// defaults, never an error.
func (a *Aggregator) Get(ctx context.Context, identity string) (Summary, error) {
	rec, err := a.store.Stats(ctx, identity)
	if errors.Is(err, storage.ErrNotFound) {
		return Summary{GuessDistribution: map[int]int{}}, nil
	}
	if err != nil {
		return Summary{}, fmt.Errorf("read stats: %w", err)
	}
	if rec.GuessDistribution == nil {
		rec.GuessDistribution = map[int]int{}
	}
	s := Summary{
		GamesPlayed:       rec.GamesPlayed,
		GamesWon:          rec.GamesWon,
		CurrentStreak:     rec.CurrentStreak,
		MaxStreak:         rec.MaxStreak,
		GuessDistribution: rec.GuessDistribution,
	}
	if s.GamesPlayed > 0 {
		s.WinPercentage = int(math.Round(100 * float64(s.GamesWon) / float64(s.GamesPlayed)))
	}
	return s, nil
}
