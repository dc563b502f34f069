// internal/storage/storage.go
//
// Persistence interface for the game backend.
// Implementations: SQLite (production) and memory (tests).
//
// The interface is the concurrency arbiter for daily answers: CreateDailyAnswer
// must treat a uniqueness violation on the date as "answer already exists" and
// return the previously persisted row, so racing callers converge on one
// answer per date.

package storage

import (
	"context"
	"errors"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/catalog"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/feedback"
)

// ErrNotFound is returned when a player, answer, or stats row is missing.
var ErrNotFound = errors.New("not found")

// AttemptRecord is one persisted guess with its per-attribute feedback.
type AttemptRecord struct {
	ID            int64               `json:"id"`
	Identity      string              `json:"-"`
	Date          string              `json:"date"`
	GuessPlayerID int64               `json:"guessPlayerId"`
	AttemptNumber int                 `json:"attemptNumber"`
	Correct       bool                `json:"correct"`
	Feedback      []feedback.Feedback `json:"feedback"`
}

// StatsRecord is the rolling per-identity statistics row.
type StatsRecord struct {
	Identity          string      `json:"-"`
	GamesPlayed       int         `json:"gamesPlayed"`
	GamesWon          int         `json:"gamesWon"`
	CurrentStreak     int         `json:"currentStreak"`
	MaxStreak         int         `json:"maxStreak"`
	GuessDistribution map[int]int `json:"guessDistribution"`
}

// Store is the storage collaborator consumed by the game components.
type Store interface {
	// Players (read-only after seeding).
	PlayerByID(ctx context.Context, id int64) (catalog.Player, error)
	PlayerByName(ctx context.Context, name string) (catalog.Player, error)
	ListPlayers(ctx context.Context) ([]catalog.Player, error)
	CountPlayers(ctx context.Context) (int, error)
	SeedPlayers(ctx context.Context, players []catalog.Player) error

	// Daily answers. CreateDailyAnswer returns the player id that ended up
	// persisted for the date, which may differ from the proposed one if a
	// concurrent caller inserted first.
	DailyAnswer(ctx context.Context, date string) (int64, error)
	CreateDailyAnswer(ctx context.Context, date string, playerID int64) (int64, error)

	// Attempts. InsertAttempt persists the attempt and its feedback rows
	// atomically.
	InsertAttempt(ctx context.Context, rec *AttemptRecord) error
	ListAttempts(ctx context.Context, identity, date string) ([]AttemptRecord, error)

	// Stats.
	Stats(ctx context.Context, identity string) (StatsRecord, error)
	UpsertStats(ctx context.Context, rec StatsRecord) error
}
