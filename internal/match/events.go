// internal/match/events.go
//
// Server-to-client event payloads for the multiplayer mode. Every event
// carries a "type" tag; the transport layer JSON-encodes them as-is.

package match

import (
	"github.com/KiraEzy/LeagueProWordleBackend/internal/catalog"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/feedback"
)

type QueuedEvent struct {
	Type     string `json:"type"` // "queued"
	Position int    `json:"position"`
}

type MatchFoundEvent struct {
	Type      string `json:"type"` // "match_found"
	SessionID string `json:"sessionId"`
	Opponent  string `json:"opponent"`
	BestOf    int    `json:"bestOf"`
}

type RoundStartEvent struct {
	Type       string `json:"type"` // "round_start"
	Round      int    `json:"round"`
	EndsAt     int64  `json:"endsAt"` // unix milliseconds
	MaxGuesses int    `json:"maxGuesses"`
}

type GuessFeedbackEvent struct {
	Type          string              `json:"type"` // "guess_feedback"
	Round         int                 `json:"round"`
	AttemptNumber int                 `json:"attemptNumber"`
	Correct       bool                `json:"correct"`
	Feedback      []feedback.Feedback `json:"feedback"`
}

// OpponentGuessedEvent tells the other participant a guess happened without
// leaking which player was guessed.
type OpponentGuessedEvent struct {
	Type          string `json:"type"` // "opponent_guessed"
	Round         int    `json:"round"`
	AttemptNumber int    `json:"attemptNumber"`
	Correct       bool   `json:"correct"`
}

type RoundEndEvent struct {
	Type   string          `json:"type"` // "round_end"
	Round  int             `json:"round"`
	Winner string          `json:"winner,omitempty"` // identity; empty when nobody solved it
	Answer *catalog.Player `json:"answer,omitempty"`
	Scores map[string]int  `json:"scores"`
}

type MatchEndEvent struct {
	Type   string         `json:"type"` // "match_end"
	Winner string         `json:"winner,omitempty"`
	Scores map[string]int `json:"scores"`
}

type OpponentLeftEvent struct {
	Type string `json:"type"` // "opponent_left"
}

type ErrorEvent struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
