// internal/match/matchmaker.go
//
// Matchmaking queue and round session machine for the head-to-head mode.
//
// Two waiting identities are paired into a best-of-N session; each round both
// guess against the same daily answer under a countdown. All shared state
// (queue, session registry) is guarded by one mutex; round timers and the
// periodic pairing sweep re-take that lock before touching anything, so
// request handlers, timers, and the sweep never interleave mid-mutation.
//
// Multiplayer guesses deliberately bypass the single-player daily cap: each
// participant gets a fresh allowance of guesses per round.

package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/answer"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/attempt"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/feedback"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/storage"
)

// ErrAlreadyQueued rejects a join from an identity that is already waiting
// or playing.
var ErrAlreadyQueued = errors.New("identity already queued or in a match")

// Config tunes the session machine. Zero values fall back to defaults.
type Config struct {
	BestOf        int           // rounds per match, odd (default 3)
	RoundDuration time.Duration // countdown per round (default 90s)
	MaxGuesses    int           // guesses per participant per round (default 6)
	CleanupDelay  time.Duration // completed-session retention (default 30s)
	SweepInterval time.Duration // periodic pairing sweep (default 3s)
}

func (c Config) withDefaults() Config {
	if c.BestOf <= 0 {
		c.BestOf = 3
	}
	if c.RoundDuration <= 0 {
		c.RoundDuration = 90 * time.Second
	}
	if c.MaxGuesses <= 0 {
		c.MaxGuesses = attempt.MaxAttempts
	}
	if c.CleanupDelay <= 0 {
		c.CleanupDelay = 30 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 3 * time.Second
	}
	return c
}

// Matchmaker owns the FIFO queue and the session registry.
type Matchmaker struct {
	cfg      Config
	store    storage.Store
	selector *answer.Selector
	now      func() time.Time

	mu         sync.Mutex
	queue      []*Client
	sessions   map[string]*session
	byIdentity map[string]*session
}

func New(cfg Config, store storage.Store, selector *answer.Selector) *Matchmaker {
	return &Matchmaker{
		cfg:        cfg.withDefaults(),
		store:      store,
		selector:   selector,
		now:        time.Now,
		sessions:   make(map[string]*session),
		byIdentity: make(map[string]*session),
	}
}

// Run drives the periodic pairing sweep until ctx is cancelled. Pairing also
// happens inline on every join; the sweep catches stragglers left by races.
func (m *Matchmaker) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			m.tryPairLocked(ctx)
			m.mu.Unlock()
		}
	}
}

// JoinQueue adds the client to the waiting queue and attempts pairing
// immediately.
func (m *Matchmaker) JoinQueue(ctx context.Context, c *Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A completed session no longer occupies the identity: participants may
	// queue for a rematch before the old session is cleaned up.
	if s, ok := m.byIdentity[c.Identity]; ok && s.state != stateCompleted {
		return ErrAlreadyQueued
	}
	for _, q := range m.queue {
		if q.Identity == c.Identity {
			return ErrAlreadyQueued
		}
	}

	m.queue = append(m.queue, c)
	c.trySend(QueuedEvent{Type: "queued", Position: len(m.queue)})
	m.tryPairLocked(ctx)
	return nil
}

// LeaveQueue removes a still-waiting client. A no-op once matched.
func (m *Matchmaker) LeaveQueue(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeFromQueueLocked(c)
}

func (m *Matchmaker) removeFromQueueLocked(c *Client) {
	for i, q := range m.queue {
		if q == c {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// tryPairLocked pairs the two oldest waiting clients for as long as the
// queue allows. If session creation fails, both go back to the FRONT of the
// queue so they keep their priority.
func (m *Matchmaker) tryPairLocked(ctx context.Context) {
	for len(m.queue) >= 2 {
		a, b := m.queue[0], m.queue[1]
		m.queue = m.queue[2:]
		if err := m.createSessionLocked(ctx, a, b); err != nil {
			log.Error().Err(err).Msg("create match session")
			m.queue = append([]*Client{a, b}, m.queue...)
			a.trySend(ErrorEvent{Type: "error", Message: "match could not be created, retrying"})
			b.trySend(ErrorEvent{Type: "error", Message: "match could not be created, retrying"})
			return
		}
	}
}

func (m *Matchmaker) createSessionLocked(ctx context.Context, a, b *Client) error {
	// Pre-draw today's answer so an empty catalog surfaces now instead of at
	// round start.
	if _, err := m.selector.GetOrCreate(ctx, answer.DateKey(m.now())); err != nil {
		return err
	}

	s := &session{
		id:           uuid.NewString(),
		state:        stateWaiting,
		round:        1,
		totalRounds:  m.cfg.BestOf,
		winThreshold: m.cfg.BestOf/2 + 1,
		participants: []*participant{
			{client: a},
			{client: b},
		},
	}
	m.sessions[s.id] = s
	m.byIdentity[a.Identity] = s
	m.byIdentity[b.Identity] = s

	a.trySend(MatchFoundEvent{Type: "match_found", SessionID: s.id, Opponent: b.Name, BestOf: s.totalRounds})
	b.trySend(MatchFoundEvent{Type: "match_found", SessionID: s.id, Opponent: a.Name, BestOf: s.totalRounds})
	log.Info().Str("session", s.id).Str("p1", a.Identity).Str("p2", b.Identity).Msg("match created")
	return nil
}

// Ready marks the participant ready; the round starts once everyone is.
func (m *Matchmaker) Ready(ctx context.Context, c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byIdentity[c.Identity]
	if !ok || s.state != stateWaiting {
		return
	}
	p := s.byClient(c)
	if p == nil {
		return
	}
	p.ready = true
	if s.allReady() {
		m.startRoundLocked(ctx, s)
	}
}

func (m *Matchmaker) startRoundLocked(ctx context.Context, s *session) {
	answerID, err := m.selector.GetOrCreate(ctx, answer.DateKey(m.now()))
	if err != nil {
		log.Error().Err(err).Str("session", s.id).Msg("draw round answer")
		s.broadcast(ErrorEvent{Type: "error", Message: "could not start round"})
		m.completeLocked(s, "")
		return
	}

	s.state = statePlaying
	s.answerID = answerID
	s.deadline = m.now().Add(m.cfg.RoundDuration)
	for _, p := range s.participants {
		p.ready = false
		p.guesses = 0
		p.done = false
	}

	s.cancelTimer()
	gen := s.timerGen
	round := s.round
	s.timer = time.AfterFunc(m.cfg.RoundDuration, func() {
		m.onRoundTimeout(s, gen, round)
	})

	s.broadcast(RoundStartEvent{
		Type:       "round_start",
		Round:      s.round,
		EndsAt:     s.deadline.UnixMilli(),
		MaxGuesses: m.cfg.MaxGuesses,
	})
}

// onRoundTimeout fires when the countdown lapses. The generation check makes
// it mutually exclusive with cancellation: a round that ended early bumped
// the generation before this callback could take the lock.
func (m *Matchmaker) onRoundTimeout(s *session, gen, round int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.timerGen != gen || s.state != statePlaying || s.round != round {
		return
	}
	s.timer = nil
	m.endRoundLocked(s, nil)
}

// SubmitGuess evaluates a round guess for the client. Guesses are counted
// per round only; the daily attempt cap does not apply here.
func (m *Matchmaker) SubmitGuess(ctx context.Context, c *Client, guessPlayerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byIdentity[c.Identity]
	if !ok || s.state != statePlaying {
		c.trySend(ErrorEvent{Type: "error", Message: "no active round"})
		return
	}
	p := s.byClient(c)
	if p == nil || p.done || p.guesses >= m.cfg.MaxGuesses {
		c.trySend(ErrorEvent{Type: "error", Message: "no guesses remaining this round"})
		return
	}

	guessed, err := m.store.PlayerByID(ctx, guessPlayerID)
	if err != nil {
		c.trySend(ErrorEvent{Type: "error", Message: "unknown player"})
		return
	}
	ans, err := m.store.PlayerByID(ctx, s.answerID)
	if err != nil {
		log.Error().Err(err).Str("session", s.id).Msg("resolve round answer")
		c.trySend(ErrorEvent{Type: "error", Message: "internal error"})
		return
	}

	p.guesses++
	correct := guessPlayerID == s.answerID
	c.trySend(GuessFeedbackEvent{
		Type:          "guess_feedback",
		Round:         s.round,
		AttemptNumber: p.guesses,
		Correct:       correct,
		Feedback:      feedback.Compare(guessed, ans),
	})
	if o := s.other(c); o != nil {
		o.client.trySend(OpponentGuessedEvent{
			Type:          "opponent_guessed",
			Round:         s.round,
			AttemptNumber: p.guesses,
			Correct:       correct,
		})
	}

	if correct {
		p.score++
		p.done = true
		m.endRoundLocked(s, p)
		return
	}
	if p.guesses >= m.cfg.MaxGuesses {
		p.done = true
		if s.allDone() {
			// Everyone exhausted their guesses; nobody takes the round.
			m.endRoundLocked(s, nil)
		}
	}
}

// endRoundLocked reveals the answer, advances or completes the session, and
// returns it to the waiting state for the next round.
func (m *Matchmaker) endRoundLocked(s *session, winner *participant) {
	s.cancelTimer()

	ev := RoundEndEvent{Type: "round_end", Round: s.round, Scores: s.scores()}
	if winner != nil {
		ev.Winner = winner.client.Identity
	}
	if ans, err := m.store.PlayerByID(context.Background(), s.answerID); err == nil {
		ev.Answer = &ans
	} else {
		log.Warn().Err(err).Str("session", s.id).Msg("reveal round answer")
	}
	s.broadcast(ev)

	if (winner != nil && winner.score >= s.winThreshold) || s.round >= s.totalRounds {
		winnerID := ""
		if winner != nil {
			winnerID = winner.client.Identity
		} else {
			winnerID = m.leaderLocked(s)
		}
		m.completeLocked(s, winnerID)
		return
	}

	s.round++
	s.state = stateWaiting
	for _, p := range s.participants {
		p.ready = false
	}
}

// leaderLocked returns the identity with the strictly highest score, or ""
// on a tie.
func (m *Matchmaker) leaderLocked(s *session) string {
	best, id, tied := -1, "", false
	for _, p := range s.participants {
		switch {
		case p.score > best:
			best, id, tied = p.score, p.client.Identity, false
		case p.score == best:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return id
}

// completeLocked transitions the session to its terminal state and schedules
// cleanup after the configured delay.
func (m *Matchmaker) completeLocked(s *session, winnerID string) {
	s.cancelTimer()
	s.state = stateCompleted
	s.broadcast(MatchEndEvent{Type: "match_end", Winner: winnerID, Scores: s.scores()})
	log.Info().Str("session", s.id).Str("winner", winnerID).Msg("match completed")

	time.AfterFunc(m.cfg.CleanupDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.destroyLocked(s)
	})
}

// destroyLocked drops the session and detaches its participants. Idempotent.
func (m *Matchmaker) destroyLocked(s *session) {
	if _, ok := m.sessions[s.id]; !ok {
		return
	}
	s.cancelTimer()
	delete(m.sessions, s.id)
	for _, p := range s.participants {
		if m.byIdentity[p.client.Identity] == s {
			delete(m.byIdentity, p.client.Identity)
		}
	}
}

// Disconnect removes the client from the queue or its session. Leaving an
// active round forfeits it: the remaining participant is awarded the match.
// A session with nobody left is destroyed immediately.
func (m *Matchmaker) Disconnect(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeFromQueueLocked(c)

	// The identity may have been remapped to a newer session by a rematch;
	// only detach when this client is actually a participant.
	s, ok := m.byIdentity[c.Identity]
	if ok && s.byClient(c) != nil {
		delete(m.byIdentity, c.Identity)
		for i, p := range s.participants {
			if p.client == c {
				s.participants = append(s.participants[:i], s.participants[i+1:]...)
				break
			}
		}
		if len(s.participants) == 0 {
			m.destroyLocked(s)
		} else if s.state != stateCompleted {
			s.broadcast(OpponentLeftEvent{Type: "opponent_left"})
			m.completeLocked(s, s.participants[0].client.Identity)
		}
	}

	c.close()
}

// QueueLen reports the number of waiting clients.
func (m *Matchmaker) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// SessionCount reports the number of live sessions.
func (m *Matchmaker) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
