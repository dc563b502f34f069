// internal/attempt/tracker.go
//
// Daily attempt tracking for the single-player game: enforces the per-day
// guess cap, runs the feedback engine, persists the attempt, and reports
// completions to the stats aggregator.

package attempt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/answer"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/feedback"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/stats"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/storage"
)

// MaxAttempts is the per-identity daily guess cap. The multiplayer mode
// reuses the same constant for its per-round cap.
const MaxAttempts = 6

// ErrMaxAttempts rejects a guess once the daily cap is reached. This is a
// game condition, not a system fault.
var ErrMaxAttempts = errors.New("max attempts exceeded")

// ErrGameComplete rejects a guess after the identity has already won the
// day's game. A completed game never accepts more guesses, so a retried
// winning request cannot record a second completion.
var ErrGameComplete = errors.New("daily game already completed")

// Result is what a submitted guess returns to the caller.
type Result struct {
	Correct       bool                `json:"correct"`
	AttemptNumber int                 `json:"attemptNumber"`
	Feedback      []feedback.Feedback `json:"feedback"`
	GameOver      bool                `json:"gameOver"`
}

// Tracker coordinates guess submission for the daily game.
type Tracker struct {
	store    storage.Store
	selector *answer.Selector
	stats    *stats.Aggregator

	// Serializes the count-check-then-insert window per process so two
	// guesses racing the cap cannot both pass the check.
	mu sync.Mutex
}

func New(store storage.Store, selector *answer.Selector, agg *stats.Aggregator) *Tracker {
	return &Tracker{store: store, selector: selector, stats: agg}
}

// SubmitGuess records one guess for (identity, date) and returns its
// feedback. A correct guess or the sixth attempt completes the game and
// updates stats with the outcome; a game already won or lost rejects further
// guesses.
func (t *Tracker) SubmitGuess(ctx context.Context, identity, date string, guessPlayerID int64) (*Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recs, err := t.store.ListAttempts(ctx, identity, date)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	switch Status(recs) {
	case "won":
		return nil, ErrGameComplete
	case "lost":
		return nil, ErrMaxAttempts
	}
	count := len(recs)

	answerID, err := t.selector.GetOrCreate(ctx, date)
	if err != nil {
		return nil, err
	}
	guessed, err := t.store.PlayerByID(ctx, guessPlayerID)
	if err != nil {
		return nil, err
	}
	ans, err := t.store.PlayerByID(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("resolve answer player: %w", err)
	}

	rec := &storage.AttemptRecord{
		Identity:      identity,
		Date:          date,
		GuessPlayerID: guessPlayerID,
		AttemptNumber: count + 1,
		Correct:       guessPlayerID == answerID,
		Feedback:      feedback.Compare(guessed, ans),
	}
	if err := t.store.InsertAttempt(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist attempt: %w", err)
	}

	res := &Result{
		Correct:       rec.Correct,
		AttemptNumber: rec.AttemptNumber,
		Feedback:      rec.Feedback,
		GameOver:      rec.Correct || rec.AttemptNumber >= MaxAttempts,
	}
	if res.GameOver {
		if err := t.stats.RecordCompletion(ctx, identity, rec.Correct, rec.AttemptNumber); err != nil {
			// The attempt itself is persisted; a stats failure should not
			// fail the guess.
			log.Warn().Err(err).Str("identity", identity).Msg("record completion")
		}
	}
	return res, nil
}

// History returns the identity's prior attempts for the date. Read failures
// degrade to an empty list: an empty view is a safe fallback for display.
func (t *Tracker) History(ctx context.Context, identity, date string) []storage.AttemptRecord {
	recs, err := t.store.ListAttempts(ctx, identity, date)
	if err != nil {
		log.Warn().Err(err).Str("identity", identity).Str("date", date).Msg("list attempts")
		return nil
	}
	return recs
}

// Status derives the single-player game state for (identity, date) from the
// attempt history: "playing", "won", or "lost".
func Status(recs []storage.AttemptRecord) string {
	for _, r := range recs {
		if r.Correct {
			return "won"
		}
	}
	if len(recs) >= MaxAttempts {
		return "lost"
	}
	return "playing"
}
