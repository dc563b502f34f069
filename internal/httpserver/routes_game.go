// internal/httpserver/routes_game.go
//
// Handlers for the daily game REST surface: today's metadata, the catalog
// listing, guess submission, stats, the consolidated daily state bundle, and
// the admin/debug answer operations.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/answer"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/attempt"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/catalog"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/storage"
)

// todayRes is returned by GET /api/game/today.
type todayRes struct {
	Date        string `json:"date"`
	GameToken   string `json:"gameToken"`
	MaxAttempts int    `json:"maxAttempts"`
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	date := answer.DateKey(time.Now())
	_ = json.NewEncoder(w).Encode(todayRes{
		Date:        date,
		GameToken:   gameToken(date),
		MaxAttempts: attempt.MaxAttempts,
	})
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.store.ListPlayers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list players")
		http.Error(w, `{"error":"storage_error"}`, http.StatusInternalServerError)
		return
	}
	if players == nil {
		players = []catalog.Player{}
	}
	_ = json.NewEncoder(w).Encode(players)
}

// guessReq accepts either a player id or any of the player's names.
type guessReq struct {
	PlayerID int64  `json:"playerId,omitempty"`
	Name     string `json:"name,omitempty"`
}

type guessRes struct {
	Correct       bool   `json:"correct"`
	AttemptNumber int    `json:"attemptNumber"`
	Feedback      any    `json:"feedback"`
	Status        string `json:"status"` // playing | won | lost
}

// handleGuess resolves the guessed player, runs the attempt tracker, and maps
// domain errors onto HTTP statuses.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.PlayerID <= 0 && req.Name == "" {
		http.Error(w, `{"error":"playerId or name required"}`, http.StatusBadRequest)
		return
	}

	var (
		guessed catalog.Player
		err     error
	)
	if req.PlayerID > 0 {
		guessed, err = s.store.PlayerByID(r.Context(), req.PlayerID)
	} else {
		guessed, err = s.store.PlayerByName(r.Context(), req.Name)
	}
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, `{"error":"unknown_player"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("resolve guess")
		http.Error(w, `{"error":"storage_error"}`, http.StatusInternalServerError)
		return
	}

	identity := s.identity(w, r)
	date := answer.DateKey(time.Now())
	res, err := s.tracker.SubmitGuess(r.Context(), identity, date, guessed.ID)
	switch {
	case errors.Is(err, attempt.ErrGameComplete):
		http.Error(w, `{"error":"game_already_completed"}`, http.StatusConflict)
		return
	case errors.Is(err, attempt.ErrMaxAttempts):
		http.Error(w, `{"error":"max_attempts_exceeded"}`, http.StatusConflict)
		return
	case errors.Is(err, answer.ErrNoEligiblePlayers):
		log.Error().Err(err).Msg("no eligible players")
		http.Error(w, `{"error":"no_eligible_players"}`, http.StatusInternalServerError)
		return
	case err != nil:
		log.Error().Err(err).Str("identity", identity).Msg("submit guess")
		http.Error(w, `{"error":"storage_error"}`, http.StatusInternalServerError)
		return
	}

	status := "playing"
	if res.Correct {
		status = "won"
	} else if res.GameOver {
		status = "lost"
	}
	_ = json.NewEncoder(w).Encode(guessRes{
		Correct:       res.Correct,
		AttemptNumber: res.AttemptNumber,
		Feedback:      res.Feedback,
		Status:        status,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.stats.Get(r.Context(), s.identity(w, r))
	if err != nil {
		log.Error().Err(err).Msg("get stats")
		http.Error(w, `{"error":"storage_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(summary)
}

// stateGuess is one prior attempt in the daily state bundle, enriched with
// the guessed player for display.
type stateGuess struct {
	storage.AttemptRecord
	Player *catalog.Player `json:"player,omitempty"`
}

// stateRes is the consolidated bundle for GET /api/game/state.
type stateRes struct {
	Date        string       `json:"date"`
	GameToken   string       `json:"gameToken"`
	MaxAttempts int          `json:"maxAttempts"`
	Status      string       `json:"status"`
	Stats       any          `json:"stats"`
	Guesses     []stateGuess `json:"guesses"`
}

// handleState returns everything the client needs to restore today's game:
// metadata, stats, prior guesses with feedback, and the derived status.
// Prior-guess reads are best effort; an empty list is a safe degraded view.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	identity := s.identity(w, r)
	date := answer.DateKey(time.Now())

	recs := s.tracker.History(r.Context(), identity, date)
	guesses := make([]stateGuess, 0, len(recs))
	for _, rec := range recs {
		g := stateGuess{AttemptRecord: rec}
		if p, err := s.store.PlayerByID(r.Context(), rec.GuessPlayerID); err == nil {
			g.Player = &p
		}
		guesses = append(guesses, g)
	}

	summary, err := s.stats.Get(r.Context(), identity)
	if err != nil {
		log.Warn().Err(err).Str("identity", identity).Msg("stats for state bundle")
	}

	_ = json.NewEncoder(w).Encode(stateRes{
		Date:        date,
		GameToken:   gameToken(date),
		MaxAttempts: attempt.MaxAttempts,
		Status:      attempt.Status(recs),
		Stats:       summary,
		Guesses:     guesses,
	})
}

// ensureRes reports per-date success flags; a failure on one date does not
// hide a success on the other.
type ensureRes struct {
	Results map[string]bool `json:"results"`
}

func (s *Server) handleEnsureAnswers(w http.ResponseWriter, r *http.Request) {
	results := s.selector.EnsureUpcoming(r.Context(), time.Now())
	out := ensureRes{Results: make(map[string]bool, len(results))}
	allOK := true
	for date, err := range results {
		out.Results[date] = err == nil
		if err != nil {
			allOK = false
		}
	}
	if !allOK {
		w.WriteHeader(http.StatusMultiStatus)
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleDebugAnswer exposes the raw daily answer. Registered only when
// APP_ENV=development.
func (s *Server) handleDebugAnswer(w http.ResponseWriter, r *http.Request) {
	date := answer.DateKey(time.Now())
	id, err := s.selector.GetOrCreate(r.Context(), date)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	p, err := s.store.PlayerByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"storage_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"date": date, "answer": p})
}
